package pipeline

// minion is the base data type
type minion struct {
	id           int
	boss         *theBoss
	inputChannel chan int
	stop         chan struct{}
	jobCount     int
}

// newMinion is the constructor function
func newMinion(id int, boss *theBoss) *minion {
	return &minion{
		id:           id,
		boss:         boss,
		inputChannel: make(chan int),
		stop:         make(chan struct{}),
	}
}

// start is a method to start the minion running
func (minion *minion) start() {
	go func() {
		for {

			// when the minion is available for work, place its data channel in the queue
			minion.boss.minionQueue <- minion.inputChannel

			// wait for work or stop signal
			select {

			// the minion has received a job from the boss
			case i := <-minion.inputChannel:
				minion.jobCount++
				minion.boss.run(i)

				// tell the boss that a job has been processed
				minion.boss.wg.Done()

			// end the minion go function if a stop signal has been sent
			case <-minion.stop:
				return
			}
		}
	}()
}

// finish is a method to properly stop and close down a minion, it returns the number of jobs it ran
func (minion *minion) finish() int {
	close(minion.stop)
	return minion.jobCount
}
