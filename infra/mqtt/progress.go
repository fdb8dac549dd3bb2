package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/IRENA-FlexTool/FlexTool/core/events"
	"github.com/IRENA-FlexTool/FlexTool/core/logger"
	coremon "github.com/IRENA-FlexTool/FlexTool/core/monitoring"
)

// Retained values of the status topic.
const (
	StatusRunning = "running"
	StatusIdle    = "idle"
	StatusOffline = "offline"
)

// ProgressPublisher sends run events to <prefix>/runs/<run id>/<event>.
type ProgressPublisher struct {
	cli        pahoClient
	cfg        Config
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewProgressPublisher connects to the broker.
func NewProgressPublisher(cfg Config, log logger.Logger) (*ProgressPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(paho.Client) { log.Infof("connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	c := newMQTTClient(opts)
	if tok := c.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, tok.Error()
	}
	return &ProgressPublisher{
		cli:        c,
		cfg:        cfg,
		log:        log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}, nil
}

// Topic returns the topic of ev.
func (p *ProgressPublisher) Topic(ev events.SolveEvent) string {
	return fmt.Sprintf("%s/runs/%s/%s", p.cfg.TopicPrefix, ev.RunID, ev.Kind)
}

// Publish sends ev and updates the retained status on run boundaries.
func (p *ProgressPublisher) Publish(ev events.SolveEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.send(p.Topic(ev), payload, false); err != nil {
		coremon.CaptureException(err, coremon.Tags{"module": "mqtt", "run_id": ev.RunID, "instance": ev.Instance})
		return err
	}
	switch ev.Kind {
	case events.RunStarted:
		return p.send(p.cfg.StatusTopic(), []byte(StatusRunning), true)
	case events.RunFinished:
		return p.send(p.cfg.StatusTopic(), []byte(StatusIdle), true)
	}
	return nil
}

func (p *ProgressPublisher) send(topic string, payload []byte, retain bool) error {
	var err error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		tok := p.cli.Publish(topic, p.cfg.QoS, retain, payload)
		tok.Wait()
		if err = tok.Error(); err == nil {
			return nil
		}
		p.log.Warnf("publish to %s attempt %d failed: %v", topic, attempt+1, err)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, err)
}

// Listen publishes every event from ch until it is closed or ctx ends.
// Publish errors are logged and do not stop the loop.
func (p *ProgressPublisher) Listen(ctx context.Context, ch <-chan events.SolveEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := p.Publish(ev); err != nil {
				p.log.Errorf("progress: %v", err)
			}
		}
	}
}

// Close disconnects from the broker.
func (p *ProgressPublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
