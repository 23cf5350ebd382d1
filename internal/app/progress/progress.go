package progress

import (
	"io"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"watchme-asr/internal/app/model"
)

// Config controls progress rendering
type Config struct {
	Enabled bool
	Writer  io.Writer
}

// Manager owns the progress container of one CLI invocation
type Manager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

// NewManager creates a manager; a disabled manager renders nothing
func NewManager(config Config) *Manager {
	if !config.Enabled {
		return &Manager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	container := mpb.New(
		mpb.WithOutput(writer),
		mpb.WithRefreshRate(120*time.Millisecond),
	)

	return &Manager{
		container: container,
		enabled:   true,
	}
}

// BatchBar renders one batch run. It implements batch.Observer.
type BatchBar struct {
	manager     *Manager
	description string

	mu  sync.Mutex
	bar *mpb.Bar

	failed atomic.Int64
}

// NewBatchBar creates a bar that appears when the batch reports its size
func (pm *Manager) NewBatchBar(description string) *BatchBar {
	return &BatchBar{manager: pm, description: description}
}

// BatchStarted creates the bar once the item count is known
func (b *BatchBar) BatchStarted(total int) {
	pm := b.manager
	if pm == nil || !pm.enabled || pm.container == nil {
		return
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	bar := pm.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(b.description+" ", decor.WC{W: len(b.description) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.1f", decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				if n := b.failed.Load(); n > 0 {
					return " errors: " + strconv.FormatInt(n, 10)
				}
				return ""
			}),
			decor.OnComplete(
				decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncWidth), " ✓ ",
			),
		),
	)

	b.mu.Lock()
	b.bar = bar
	b.mu.Unlock()

	if total == 0 {
		bar.SetTotal(0, true)
	}
}

// ItemFinished advances the bar
func (b *BatchBar) ItemFinished(result model.ItemResult) {
	if result.Status == model.StatusFailed || result.Status == model.StatusQuotaExceeded {
		b.failed.Add(1)
	}
	b.mu.Lock()
	bar := b.bar
	b.mu.Unlock()
	if bar != nil {
		bar.EwmaIncrement(time.Duration(result.Duration * float64(time.Second)))
	}
}

// Failed returns the number of failed or quota-exceeded items seen
func (b *BatchBar) Failed() int {
	return int(b.failed.Load())
}

// Complete marks the bar done even when items were not attempted
func (b *BatchBar) Complete() {
	b.mu.Lock()
	bar := b.bar
	b.mu.Unlock()
	if bar != nil {
		bar.SetTotal(bar.Current(), true)
	}
}

// Wait blocks until every bar has rendered its final state
func (pm *Manager) Wait() {
	if pm.enabled && pm.container != nil {
		pm.container.Wait()
	}
}

// Shutdown stops rendering immediately
func (pm *Manager) Shutdown() {
	if pm.enabled && pm.container != nil {
		pm.container.Shutdown()
	}
}

// IsTTY reports whether writer is a terminal
func IsTTY(writer io.Writer) bool {
	if writer == nil {
		return false
	}

	if file, ok := writer.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// ShouldShowProgress enables bars when forced or attached to a terminal
func ShouldShowProgress(forced bool) bool {
	if forced {
		return true
	}

	return IsTTY(os.Stderr) || IsTTY(os.Stdout)
}
