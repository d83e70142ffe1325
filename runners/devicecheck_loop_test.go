package runners

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
)

var _ = Describe("DeviceCheck loop", func() {
	var (
		h        *harness
		dir      string
		interval atomic.Int64
		cancel   context.CancelFunc
		done     chan error
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "devicecheck")
		Expect(err).NotTo(HaveOccurred())
		h = buildHarness(GinkgoT(), dir, nil)
		interval.Store(int64(10 * time.Second))
		h.dc.interval = func() time.Duration { return time.Duration(interval.Load()) }

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- h.dc.Start(ctx) }()
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive(BeNil()))
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("runs a pass at start and one per tick", func() {
		Eventually(h.source.Calls).Should(Equal(1))
		Eventually(h.clock.HasWaiters).Should(BeTrue())

		h.source.set(usbDevice("X1", "sdb"))
		h.clock.Step(10 * time.Second)
		Eventually(h.source.Calls).Should(Equal(2))
		Eventually(func() bool { return h.reg.Has("X1") }).Should(BeTrue())

		h.clock.Step(5 * time.Second)
		Consistently(h.source.Calls, 100*time.Millisecond).Should(Equal(2))
	})

	It("marks a pulled member offline on the next tick", func() {
		h.source.set(usbDevice("X1", "sdb"))
		Eventually(h.clock.HasWaiters).Should(BeTrue())
		h.clock.Step(10 * time.Second)
		Eventually(func() bool { return h.reg.Has("X1") }).Should(BeTrue())

		h.source.set()
		h.clock.Step(10 * time.Second)
		Eventually(func() types.Status {
			d, _ := h.reg.Get("X1")
			return d.Status
		}).Should(Equal(types.StatusOffline))
	})

	It("picks up a new poll interval after a configuration change", func() {
		Eventually(h.clock.HasWaiters).Should(BeTrue())
		interval.Store(int64(2 * time.Second))
		h.dc.configModifyChan <- struct{}{}

		Eventually(func() int { return len(h.dc.configModifyChan) }).Should(BeZero())
		time.Sleep(50 * time.Millisecond)

		// a single 2s step fires the replacement ticker
		h.clock.Step(2 * time.Second)
		Eventually(h.source.Calls).Should(Equal(2))
	})
})
