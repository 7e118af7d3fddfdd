package services

import (
	"sync"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// Observer receives incremental updates during a long-running scan.
// Calls are made from the scanning goroutine; implementations must not block for long.
type Observer interface {
	OnProgress(progress entities.ScanProgress)
	OnPartialResults(partial entities.PartialResults)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	Progress func(entities.ScanProgress)
	Partial  func(entities.PartialResults)
}

func (o ObserverFuncs) OnProgress(progress entities.ScanProgress) {
	if o.Progress != nil {
		o.Progress(progress)
	}
}

func (o ObserverFuncs) OnPartialResults(partial entities.PartialResults) {
	if o.Partial != nil {
		o.Partial(partial)
	}
}

// NopObserver discards every update
var NopObserver Observer = ObserverFuncs{}

// reporter keeps step indices non-decreasing and partial results growing
type reporter struct {
	mu         sync.Mutex
	observer   Observer
	totalSteps int
	step       int
	resolved   int
}

func newReporter(observer Observer, totalSteps int) *reporter {
	if observer == nil {
		observer = NopObserver
	}
	return &reporter{observer: observer, totalSteps: totalSteps}
}

func (r *reporter) progress(step int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if step < r.step {
		step = r.step
	}
	if step > r.totalSteps {
		step = r.totalSteps
	}
	r.step = step
	r.observer.OnProgress(entities.ScanProgress{Step: step, TotalSteps: r.totalSteps, Message: message})
}

// partial forwards a snapshot unless it resolves fewer recipients than the last one
func (r *reporter) partial(partial entities.PartialResults) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved := 0
	for _, rec := range partial.Recipients {
		if rec.CurrentBalance != entities.BalancePending {
			resolved++
		}
	}
	if resolved < r.resolved {
		return
	}
	r.resolved = resolved
	r.observer.OnPartialResults(partial)
}
