package notify

/*
Dispatcher доставляет личные сообщения (DM) в фоне.

- Non-blocking: Notify никогда не ждёт сеть. Исход заявки уже зафиксирован в уведомлении,
  DM лишь вежливость по отношению к автору заявки.
- Load Shedding: при переполнении буфера сообщение отбрасывается с записью в лог.
- Drain Pattern: Stop закрывает вход и дожидается, пока воркер отправит всё, что в очереди.
- Ошибки доставки (закрытые DM, удалённый пользователь) глотаются и логируются.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender: то, чем физически отправляется DM (адаптер Discord).
type Sender interface {
	SendDirect(ctx context.Context, userID, content string) error
}

// Message: одна единица очереди.
type Message struct {
	ID       string
	TraceID  string
	UserID   string
	Content  string
	QueuedAt time.Time
}

type Dispatcher struct {
	ch          chan Message
	sender      Sender
	sendTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
	wg          sync.WaitGroup

	// closed защищён mu, иначе отправка в закрытый канал паникует
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, cfg infra.NotifyConfig, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 256
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		ch:          make(chan Message, size),
		sender:      sender,
		sendTimeout: timeout,
		metrics:     m,
		logger:      logger.With(zap.String("mod", "notify")),
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.worker()
}

// Stop запирает вход и ждёт, пока воркер разошлёт остаток очереди.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher: draining queue...")
	d.wg.Wait()
	d.logger.Info("dispatcher stopped gracefully")
}

// Notify ставит DM в очередь. Контекст нужен только для trace id: доставка переживёт
// завершение обработки события.
func (d *Dispatcher) Notify(ctx context.Context, userID, content string) {
	msg := Message{
		ID:       uuid.NewString(),
		TraceID:  infra.TraceID(ctx),
		UserID:   userID,
		Content:  content,
		QueuedAt: time.Now(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("direct message dropped: dispatcher is stopping", zap.String("user_id", userID))
		return
	}

	select {
	case d.ch <- msg:
		d.metrics.NotifyQueueFill.Set(float64(len(d.ch)))
	default:
		d.logger.Error("notify_buffer_overflow",
			zap.String("user_id", userID),
			zap.String("trace_id", msg.TraceID),
		)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for msg := range d.ch {
		d.metrics.NotifyQueueFill.Set(float64(len(d.ch)))
		d.deliver(msg)
	}
	d.logger.Info("notify worker finished")
}

func (d *Dispatcher) deliver(msg Message) {
	// Background: контекст события к этому моменту, скорее всего, уже отменён
	ctx, cancel := context.WithTimeout(infra.WithTraceID(context.Background(), msg.TraceID), d.sendTimeout)
	defer cancel()

	if err := d.sender.SendDirect(ctx, msg.UserID, msg.Content); err != nil {
		d.logger.Warn("direct message not delivered",
			zap.String("user_id", msg.UserID),
			zap.String("trace_id", msg.TraceID),
			zap.Duration("queued_for", time.Since(msg.QueuedAt)),
			zap.Error(err))
		return
	}
	d.logger.Debug("direct message delivered", zap.String("user_id", msg.UserID), zap.String("trace_id", msg.TraceID))
}
