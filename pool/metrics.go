package pool

// Recorder receives point-in-time observations from the manager. It is
// satisfied by observability.Recorder. NewManager accepts a nil Recorder
// and substitutes a no-op, so the manager never calls through nil.
type Recorder interface {
	SetPoolSize(n int)
	SetHealthyWorkers(n int)
	IncSpawnAttempt(port int, ok bool)
	IncReplacement(reason string)
	IncRotation()
	ObserveRequest(workerID string, ok bool)
}

type noopRecorder struct{}

func (noopRecorder) SetPoolSize(int)             {}
func (noopRecorder) SetHealthyWorkers(int)       {}
func (noopRecorder) IncSpawnAttempt(int, bool)   {}
func (noopRecorder) IncReplacement(string)       {}
func (noopRecorder) IncRotation()                {}
func (noopRecorder) ObserveRequest(string, bool) {}
