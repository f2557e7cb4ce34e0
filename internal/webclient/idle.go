package webclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// networkIdle tracks in-flight requests on a tab and closes Done once none
// has been pending for idleAfter. It must be attached before navigation.
type networkIdle struct {
	idleAfter time.Duration
	active    int32
	done      chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	once  sync.Once
}

func watchNetworkIdle(ctx context.Context, idleAfter time.Duration) *networkIdle {
	ni := &networkIdle{idleAfter: idleAfter, done: make(chan struct{})}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			// a redirect reuses the request ID of the hop before it
			if e.RedirectResponse != nil {
				return
			}
			atomic.AddInt32(&ni.active, 1)
			ni.stopTimer()
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&ni.active, -1) <= 0 {
				atomic.StoreInt32(&ni.active, 0)
				ni.arm()
			}
		}
	})

	return ni
}

// arm (re)starts the quiet-period timer. Called after each request settles
// and once after readiness, for pages that issue no further requests.
func (ni *networkIdle) arm() {
	ni.mu.Lock()
	defer ni.mu.Unlock()

	if ni.timer != nil {
		ni.timer.Stop()
	}
	ni.timer = time.AfterFunc(ni.idleAfter, func() {
		if atomic.LoadInt32(&ni.active) == 0 {
			ni.once.Do(func() { close(ni.done) })
		}
	})
}

func (ni *networkIdle) stopTimer() {
	ni.mu.Lock()
	defer ni.mu.Unlock()
	if ni.timer != nil {
		ni.timer.Stop()
	}
}

// Done is closed once the network has been quiet for idleAfter.
func (ni *networkIdle) Done() <-chan struct{} { return ni.done }
