package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/prodsched/auth"
	"github.com/kilianp07/prodsched/core/model"
	coremon "github.com/kilianp07/prodsched/core/monitoring"
	"github.com/kilianp07/prodsched/core/notify"
	"github.com/kilianp07/prodsched/infra/logger"
)

// DefaultTopicPrefix is used when Config.TopicPrefix is empty.
const DefaultTopicPrefix = "prodsched"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool            `json:"enabled"`
	Broker      string          `json:"broker"`
	ClientID    string          `json:"client_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	TopicPrefix string          `json:"topic_prefix"`
	AckTopic    string          `json:"ack_topic"`
	UseTLS      bool            `json:"use_tls"`
	ClientCert  string          `json:"client_cert"`
	ClientKey   string          `json:"client_key"`
	CABundle    string          `json:"ca_bundle"`
	AuthMethod  string          `json:"auth_method"`
	OAuth2      auth.Conf       `json:"oauth2"`
	QoS         map[string]byte `json:"qos"`
	LWTTopic    string          `json:"lwt_topic"`
	LWTPayload  string          `json:"lwt_payload"`
	LWTQoS      byte            `json:"lwt_qos"`
	LWTRetain   bool            `json:"lwt_retain"`
	MaxRetries  int             `json:"max_retries"`
	BackoffMS   int             `json:"backoff_ms"`
	TLSConfig   *tls.Config     `json:"-"`
}

func (c Config) prefix() string {
	if c.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.TopicPrefix
}

// WorkerTopic is the topic carrying the assignment notices of one worker.
func (c Config) WorkerTopic(workerID string) string {
	return fmt.Sprintf("%s/workers/%s/assignments", c.prefix(), workerID)
}

// ScheduleTopic is the retained topic carrying the run summary of one day.
func (c Config) ScheduleTopic(date string) string {
	return fmt.Sprintf("%s/schedules/%s", c.prefix(), date)
}

func (c Config) ackTopic() string {
	if c.AckTopic != "" {
		return c.AckTopic
	}
	return c.prefix() + "/workers/+/ack"
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements notify.Notifier using Eclipse Paho. Workers
// acknowledge notices by echoing the message id on the ack topic.
type PahoClient struct {
	cli pahoClient
	cfg Config
	qos map[string]byte

	mu         sync.Mutex
	ackChans   map[string]chan struct{}
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the ack topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	logger := logger.New("mqtt_notifier")
	pc := &PahoClient{
		cfg:        cfg,
		ackChans:   make(map[string]chan struct{}),
		logger:     logger,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		now:        time.Now,
	}
	if pc.maxRetries <= 0 {
		pc.maxRetries = 3
	}
	if pc.backoff <= 0 {
		pc.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(c paho.Client) {
		logger.Infof("MQTT connected")
		if token := c.Subscribe(cfg.ackTopic(), pc.qosFor("ack"), pc.onAck); token.Wait() && token.Error() != nil {
			logger.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.AuthMethod == "oauth2" {
		if err := cfg.OAuth2.Validate(); err != nil {
			return nil, err
		}
		opts.SetCredentialsProvider(oauthCredentials(auth.NewClientCred(cfg.OAuth2), cfg.OAuth2.ClientID))
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// oauthCredentials presents the client id as username and a fresh access
// token as password on every (re)connect.
func oauthCredentials(cred *auth.ClientCred, username string) paho.CredentialsProvider {
	log := logger.New("mqtt_auth")
	return func() (string, string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		tok, err := cred.AccessToken(ctx)
		if err != nil {
			log.Errorf("oauth2 token: %v", err)
			coremon.CaptureException(err, map[string]string{"module": "mqtt"})
			return username, ""
		}
		return username, tok
	}
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.ackChans[m.MessageID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Infof("received ack %s", m.MessageID)
	}
	p.mu.Unlock()
}

// publish sends payload with exponential backoff between attempts.
func (p *PahoClient) publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	return publishErr
}

// SendNotice publishes the tasks of one worker and returns the message
// identifier used for acknowledgment tracking.
func (p *PahoClient) SendNotice(ctx context.Context, date string, workerID string, tasks []model.Assignment) (string, error) {
	msgID := uuid.NewString()
	payload, err := json.Marshal(notify.WorkerNotice{
		MessageID: msgID,
		WorkerID:  workerID,
		Date:      date,
		Tasks:     tasks,
		SentAt:    p.now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	topic := p.cfg.WorkerTopic(workerID)
	p.mu.Lock()
	p.ackChans[msgID] = make(chan struct{}, 1)
	p.mu.Unlock()
	if err := p.publish(ctx, topic, p.qosFor("notice"), false, payload); err != nil {
		p.mu.Lock()
		delete(p.ackChans, msgID)
		p.mu.Unlock()
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "worker_id": workerID, "date": date})
		return "", err
	}
	p.logger.Infof("sent %d tasks to %s", len(tasks), topic)
	return msgID, nil
}

// Notify sends one notice per worker with tasks, then the retained run summary.
func (p *PahoClient) Notify(ctx context.Context, result model.ScheduleResult) error {
	date := notify.DateKey(result.Date)
	ids, byWorker := notify.GroupByWorker(result.Tasks)
	var errs []error
	for _, id := range ids {
		if _, err := p.SendNotice(ctx, date, id, byWorker[id]); err != nil {
			errs = append(errs, fmt.Errorf("worker %s: %w", id, err))
		}
	}
	payload, err := json.Marshal(notify.ScheduleNotice{
		MessageID:       uuid.NewString(),
		Date:            date,
		Feasible:        result.Feasible,
		Tasks:           len(result.Tasks),
		Issues:          result.Issues,
		Recommendations: result.Recommendations,
		SentAt:          p.now().UnixMilli(),
	})
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	if err := p.publish(ctx, p.cfg.ScheduleTopic(date), p.qosFor("summary"), true, payload); err != nil {
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "date": date})
		errs = append(errs, fmt.Errorf("summary: %w", err))
	}
	return errors.Join(errs...)
}

// WaitForAck blocks until an ack for the given message ID is received or timeout.
func (p *PahoClient) WaitForAck(messageID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[messageID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("unknown message")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	defer func() {
		p.mu.Lock()
		delete(p.ackChans, messageID)
		p.mu.Unlock()
	}()
	select {
	case <-ch:
		return true, nil
	case <-timer.C:
		return false, fmt.Errorf("%w", notify.ErrAckTimeout)
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
