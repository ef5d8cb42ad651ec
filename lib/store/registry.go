package store

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// registry is the process-wide registry of open stores (Open adds a
// store, Close removes it), replacing the interpreter-shutdown finalizer of the
// source this design was distilled from with an explicit shutdown
// hook. Stores are tracked in open order; the hook closes them in
// reverse open order.
var (
	registryMu sync.Mutex
	openStores []*storeImpl
	hookOnce   sync.Once
)

func registerStore(s *storeImpl) {
	installShutdownHookOnce()
	registryMu.Lock()
	defer registryMu.Unlock()
	openStores = append(openStores, s)
}

func unregisterStore(s *storeImpl) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i, o := range openStores {
		if o == s {
			openStores = append(openStores[:i], openStores[i+1:]...)
			return
		}
	}
}

func installShutdownHookOnce() {
	hookOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			closeAllInReverseOrder()
			signal.Stop(ch)
			// signal.Notify suppresses Go's default terminate-on-signal
			// behavior, so the process must exit itself once cleanup is
			// done; otherwise a listener left running would keep serving
			// against now-closed stores until a second signal arrives.
			os.Exit(0)
		}()
	})
}

func closeAllInReverseOrder() {
	registryMu.Lock()
	stores := make([]*storeImpl, len(openStores))
	copy(stores, openStores)
	registryMu.Unlock()

	for i := len(stores) - 1; i >= 0; i-- {
		_ = stores[i].Close()
	}
}
