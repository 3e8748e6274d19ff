//go:build !(rp2040 || rp2350)

// Package mqttlink is a radio collaborator backed by an MQTT session. Enable
// connects, Disable disconnects, and bus traffic is forwarded upstream while
// the link is up. Messages published while it is down are held, latest per
// topic, and flushed on the next Enable.
package mqttlink

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"lowpower-go/bus"
	"lowpower-go/errcode"
	"lowpower-go/types"
	"lowpower-go/x/logx"
	"lowpower-go/x/strconvx"
)

const (
	defaultConnectTimeout = 5 * time.Second
	disconnectQuiesceMs   = 250
	qos                   = 1
)

// NewClient is swapped out in tests.
var NewClient = mqtt.NewClient

type Link struct {
	mu      sync.Mutex
	client  mqtt.Client
	timeout time.Duration
	prefix  string
	held    map[string][]byte
	order   []string
	sent    uint32
}

// New builds the client without connecting.
func New(cfg types.RadioConfig) (*Link, error) {
	if cfg.Broker == "" {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "mqttlink", Msg: "broker is required"}
	}
	id := cfg.ClientID
	if id == "" {
		id = "lowpower"
	}
	timeout := time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(id).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(timeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return &Link{
		client:  NewClient(opts),
		timeout: timeout,
		prefix:  "lowpower/" + id,
		held:    map[string][]byte{},
	}, nil
}

// Enable connects within the configured timeout and flushes held messages.
func (l *Link) Enable() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.client.IsConnected() {
		tok := l.client.Connect()
		if !tok.WaitTimeout(l.timeout) {
			return &errcode.E{C: errcode.Timeout, Op: "mqtt_connect", Msg: strconvx.Itoa(int(l.timeout/time.Millisecond)) + "ms"}
		}
		if err := tok.Error(); err != nil {
			return errcode.Wrap(errcode.RadioFault, "mqtt_connect", err)
		}
	}
	return l.flushLocked()
}

// Disable ends the session. Held messages survive.
func (l *Link) Disable() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client.IsConnected() {
		l.client.Disconnect(disconnectQuiesceMs)
	}
	return nil
}

func (l *Link) Connected() bool { return l.client.IsConnected() }

// Sent counts messages delivered to the broker.
func (l *Link) Sent() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent
}

// Topic maps a bus topic under the link's prefix.
func (l *Link) Topic(t bus.Topic) string {
	var sb strings.Builder
	sb.WriteString(l.prefix)
	for _, tok := range t {
		sb.WriteByte('/')
		switch v := tok.(type) {
		case string:
			sb.WriteString(v)
		case int:
			sb.WriteString(strconvx.Itoa(v))
		}
	}
	return sb.String()
}

// Send publishes payload as JSON, or holds it while the link is down.
func (l *Link) Send(t bus.Topic, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "mqtt_send", err)
	}
	topic := l.Topic(t)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[topic]; !ok {
		l.order = append(l.order, topic)
	}
	l.held[topic] = b
	if !l.client.IsConnected() {
		return nil
	}
	return l.flushLocked()
}

func (l *Link) flushLocked() error {
	for len(l.order) > 0 {
		topic := l.order[0]
		tok := l.client.Publish(topic, qos, true, l.held[topic])
		if !tok.WaitTimeout(l.timeout) {
			return &errcode.E{C: errcode.Timeout, Op: "mqtt_publish", Msg: topic}
		}
		if err := tok.Error(); err != nil {
			return errcode.Wrap(errcode.RadioFault, "mqtt_publish", err)
		}
		delete(l.held, topic)
		l.order = l.order[1:]
		l.sent++
	}
	return nil
}

// Forward relays every message matching the given bus topics upstream until
// ctx is cancelled.
func (l *Link) Forward(ctx context.Context, conn *bus.Connection, topics ...bus.Topic) {
	subs := make([]*bus.Subscription, len(topics))
	merged := make(chan *bus.Message, 16)
	var wg sync.WaitGroup
	for i, t := range topics {
		subs[i] = conn.Subscribe(t)
		wg.Add(1)
		go func(ch <-chan *bus.Message) {
			defer wg.Done()
			for m := range ch {
				select {
				case merged <- m:
				case <-ctx.Done():
					return
				}
			}
		}(subs[i].Channel())
	}
	go func() {
		<-ctx.Done()
		for _, s := range subs {
			conn.Unsubscribe(s)
		}
		wg.Wait()
		close(merged)
	}()
	for m := range merged {
		if err := l.Send(m.Topic, m.Payload); err != nil {
			logx.Warnf("uplink %s: %v", l.Topic(m.Topic), err)
		}
	}
}
