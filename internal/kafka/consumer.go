package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateSubscribed:
		return "SUBSCRIBED"
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Dispatch receives every fetched message. It must not panic the runtime:
// panics are recovered at the dispatch boundary and the loop continues.
type Dispatch func(ctx context.Context, m kafka.Message)

type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	QueueSize         int
}

// fetcher is the slice of kafka.Reader the runtime uses.
type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer is a per-service consumer-group runtime. Lifecycle:
// Connect -> Subscribe -> Run; a cancelled context drains in-flight
// handlers and stops. Partition assignment, heartbeats and rebalances are
// delegated to the broker client; within this process each partition gets
// one serial worker, so a slow handler stalls only its own partition's queue.
type Consumer struct {
	cfg   ConsumerConfig
	log   *slog.Logger
	state atomic.Int32

	reader    fetcher
	newReader func(topic string, fromBeginning bool) fetcher
	dial      func(ctx context.Context) error

	wg sync.WaitGroup
}

func NewConsumer(cfg ConsumerConfig, log *slog.Logger) *Consumer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	c := &Consumer{cfg: cfg, log: log}
	c.newReader = func(topic string, fromBeginning bool) fetcher {
		start := kafka.LastOffset
		if fromBeginning {
			start = kafka.FirstOffset
		}
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Brokers,
			GroupID:           cfg.GroupID,
			Topic:             topic,
			MinBytes:          1,
			MaxBytes:          10e6,
			StartOffset:       start,
			SessionTimeout:    cfg.SessionTimeout,
			HeartbeatInterval: cfg.HeartbeatInterval,
			CommitInterval:    0, // manual commit
		})
	}
	c.dial = func(ctx context.Context) error {
		d := &kafka.Dialer{Timeout: 10 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", cfg.Brokers[0])
		if err != nil {
			return err
		}
		return conn.Close()
	}
	return c
}

func (c *Consumer) State() State { return State(c.state.Load()) }

// Connect verifies broker reachability. An unrecoverable error here is fatal
// for the caller; the dialer's own bounded retry policy already ran.
func (c *Consumer) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return fmt.Errorf("connect: consumer in state %s", c.State())
	}
	if err := c.dial(ctx); err != nil {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("connect brokers %v: %w", c.cfg.Brokers, err)
	}
	c.log.Info("consumer connected", "group", c.cfg.GroupID)
	return nil
}

// Subscribe must be called after Connect and before Run.
func (c *Consumer) Subscribe(topic string, fromBeginning bool) error {
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateSubscribed)) {
		return fmt.Errorf("subscribe: consumer in state %s", c.State())
	}
	c.reader = c.newReader(topic, fromBeginning)
	c.log.Info("subscribed", "topic", topic, "group", c.cfg.GroupID, "fromBeginning", fromBeginning)
	return nil
}

// Run fetches until ctx is cancelled or the reader fails, routing each
// message to its partition's worker. Offsets are committed after dispatch
// returns, regardless of handler outcome (at-least-once). On cancellation it
// stops fetching, lets in-flight dispatches finish, then closes the reader.
func (c *Consumer) Run(ctx context.Context, dispatch Dispatch) error {
	if !c.state.CompareAndSwap(int32(StateSubscribed), int32(StateRunning)) {
		return fmt.Errorf("run: consumer in state %s", c.State())
	}

	queues := make(map[int]chan kafka.Message)
	var fetchErr error

loop:
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				fetchErr = err
			}
			break loop
		}
		q, ok := queues[m.Partition]
		if !ok {
			q = make(chan kafka.Message, c.cfg.QueueSize)
			queues[m.Partition] = q
			c.wg.Add(1)
			go c.worker(q, dispatch)
		}
		select {
		case q <- m:
		case <-ctx.Done():
			break loop
		}
	}

	c.state.Store(int32(StateDraining))
	c.log.Info("draining in-flight handlers")
	for _, q := range queues {
		close(q)
	}
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		c.log.Error("close reader", "err", err)
	}
	c.state.Store(int32(StateStopped))
	c.log.Info("consumer stopped", "group", c.cfg.GroupID)

	if fetchErr != nil {
		return fmt.Errorf("fetch: %w", fetchErr)
	}
	return nil
}

// worker serializes dispatch for one partition. Dispatch and commit run on a
// background context so draining finishes messages already handed over.
func (c *Consumer) worker(q <-chan kafka.Message, dispatch Dispatch) {
	defer c.wg.Done()
	for m := range q {
		c.dispatchOne(dispatch, m)
		if err := c.reader.CommitMessages(context.Background(), m); err != nil {
			c.log.Error("commit offset",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
		}
	}
}

func (c *Consumer) dispatchOne(dispatch Dispatch, m kafka.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("dispatch panic",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset,
				"panic", r, "stack", string(debug.Stack()))
		}
	}()
	dispatch(context.Background(), m)
}
