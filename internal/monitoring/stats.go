package monitoring

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time view of the process and host.
type Stats struct {
	SampledAt        time.Time `json:"sampled_at"`
	Uptime           string    `json:"uptime"`
	Goroutines       int       `json:"goroutines"`
	ProcessCPU       float64   `json:"process_cpu_percent"`
	ProcessRSS       uint64    `json:"process_rss_bytes"`
	HostMemoryUsed   float64   `json:"host_memory_used_percent"`
	HostMemoryTotal  uint64    `json:"host_memory_total_bytes"`
	WebsocketClients int       `json:"websocket_clients"`
}

// ClientCounter reports the number of live websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// StatSampler periodically samples process and host stats and caches the
// latest result for the health endpoint.
type StatSampler struct {
	interval time.Duration
	clients  ClientCounter
	started  time.Time
	proc     *process.Process

	mu   sync.RWMutex
	last Stats

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewStatSampler creates a sampler. clients may be nil.
func NewStatSampler(interval time.Duration, clients ClientCounter) *StatSampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("StatSampler: Process stats unavailable")
		proc = nil
	}
	return &StatSampler{
		interval: interval,
		clients:  clients,
		started:  time.Now(),
		proc:     proc,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Run samples immediately and then on every tick until Stop is called.
func (s *StatSampler) Run() {
	defer close(s.stopped)
	log.Info().Dur("interval", s.interval).Msg("Starting stats sampler...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sample()
	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping stats sampler.")
			return
		case <-ticker.C:
			s.Sample()
		}
	}
}

// Stop halts the sampler and waits for Run to return.
func (s *StatSampler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.stopped
}

// Sample collects a fresh set of stats and caches it.
func (s *StatSampler) Sample() Stats {
	now := time.Now()
	stats := Stats{
		SampledAt:  now,
		Uptime:     now.Sub(s.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}
	if s.clients != nil {
		stats.WebsocketClients = s.clients.ClientCount()
	}

	if s.proc != nil {
		if cpu, err := s.proc.CPUPercent(); err == nil {
			stats.ProcessCPU = cpu
		} else {
			log.Debug().Err(err).Msg("StatSampler: Could not read process CPU")
		}
		if memInfo, err := s.proc.MemoryInfo(); err == nil {
			stats.ProcessRSS = memInfo.RSS
		} else {
			log.Debug().Err(err).Msg("StatSampler: Could not read process memory")
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.HostMemoryUsed = vm.UsedPercent
		stats.HostMemoryTotal = vm.Total
	} else {
		log.Debug().Err(err).Msg("StatSampler: Could not read host memory")
	}

	s.mu.Lock()
	s.last = stats
	s.mu.Unlock()
	return stats
}

// Snapshot returns the most recent sample. The zero value is returned before
// the first sample.
func (s *StatSampler) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
