package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/icco/genecg/internal/ecg"
	"github.com/icco/genecg/internal/session"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher sends session ticks to NATS.
type Publisher struct {
	nc            *nats.Conn
	waveSubject   string
	statusSubject string
}

// NewPublisher publishes strips on wave and status JSON on status. An empty
// status subject disables status messages.
func NewPublisher(nc *nats.Conn, wave, status string) *Publisher {
	return &Publisher{nc: nc, waveSubject: wave, statusSubject: status}
}

// Publish sends one tick.
func (p *Publisher) Publish(t session.Tick) error {
	if err := p.nc.Publish(p.waveSubject, EncodeStrip(t.Strip)); err != nil {
		return fmt.Errorf("publishing strip: %w", err)
	}
	if p.statusSubject == "" {
		return nil
	}
	b, err := json.Marshal(NewStatus(t, time.Now().UnixMilli()))
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	if err := p.nc.Publish(p.statusSubject, b); err != nil {
		return fmt.Errorf("publishing status: %w", err)
	}
	return nil
}

// HandleCommand decodes a batch and pushes it whole onto q.
func HandleCommand(data []byte, q *ecg.CommandQueue) error {
	cmds, err := DecodeCommands(data)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		return nil
	}
	return q.Push(cmds...)
}

// SubscribeCommands feeds command batches arriving on subject into q. When a
// request carries a reply subject the result is sent back as "ok" or the
// error text.
func SubscribeCommands(nc *nats.Conn, subject string, q *ecg.CommandQueue, log *zap.Logger) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		reply := []byte("ok")
		if err := HandleCommand(msg.Data, q); err != nil {
			log.Warn("rejected command batch", zap.String("subject", msg.Subject), zap.Error(err))
			reply = []byte(err.Error())
		}
		if msg.Reply != "" {
			_ = msg.Respond(reply)
		}
	})
}

// Run steps sess at fps until ctx is done, publishing every tick.
func Run(ctx context.Context, sess *session.Session, pub *Publisher, fps int, log *zap.Logger) error {
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	start := time.Now()
	beats := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("stream stopping", zap.Int("beats", beats), zap.Duration("uptime", time.Since(start)))
			return nil
		case now := <-ticker.C:
			t := sess.Step(now.Sub(start).Seconds())
			beats = t.Beats
			if err := pub.Publish(t); err != nil {
				log.Error("publish failed", zap.Error(err))
			}
		}
	}
}
