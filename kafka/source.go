// Package kafka implements a source of delimited-text records consumed from
// Kafka topics, so the trip and fare feeds can arrive as streams instead of
// files. Messages are expected to carry one CSV line each, with the header
// line first on each topic.
package kafka

import (
	"io"
	"log"
	"sync"

	"github.com/Shopify/sarama"
	cluster "github.com/bsm/sarama-cluster"
	"github.com/pkg/errors"

	"github.com/tripline/tripline"
)

// Source implements tripline.Source over a Kafka consumer group, yielding
// one raw line per message. It is not threadsafe; create multiple Sources
// for concurrency.
type Source struct {
	Hosts   []string
	Topics  []string
	Group   string
	MaxMsgs int
	numMsgs int

	consumer *cluster.Consumer
}

// NewSource gets a new Source with default connection settings.
func NewSource() *Source {
	return &Source{
		Hosts:  []string{"localhost:9092"},
		Topics: []string{"trips"},
		Group:  "tripline",
	}
}

// Open initializes the consumer. MaxMsgs bounds consumption for supervised
// runs; zero means read until the channel closes.
func (s *Source) Open() error {
	sarama.Logger = log.New(io.Discard, "", 0)
	config := cluster.NewConfig()
	config.Config.Version = sarama.V0_10_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Group.Return.Notifications = true

	var err error
	s.consumer, err = cluster.NewConsumer(s.Hosts, s.Group, s.Topics, config)
	if err != nil {
		return errors.Wrap(err, "getting new consumer")
	}

	go func() {
		for err := range s.consumer.Errors() {
			log.Printf("kafka consumer error: %v", err)
		}
	}()
	go func() {
		for note := range s.consumer.Notifications() {
			log.Printf("kafka rebalance: %+v", note)
		}
	}()
	return nil
}

// Record returns the next message value as a []byte line.
func (s *Source) Record() (interface{}, error) {
	if s.MaxMsgs > 0 {
		s.numMsgs++
		if s.numMsgs > s.MaxMsgs {
			return nil, io.EOF
		}
	}
	msg, ok := <-s.consumer.Messages()
	if !ok {
		return nil, io.EOF
	}
	s.consumer.MarkOffset(msg, "")
	return msg.Value, nil
}

// Close shuts down the consumer.
func (s *Source) Close() error {
	if s.consumer == nil {
		return nil
	}
	return errors.Wrap(s.consumer.Close(), "closing consumer")
}

// NewRawSource adapts a line source into a tripline.RawSource presenting the
// whole stream as one named reader, suitable for csv.ReadFrame.
func NewRawSource(src tripline.Source, name string) tripline.RawSource {
	return &rawSource{r: &streamReader{src: src, name: name}}
}

type rawSource struct {
	mu   sync.Mutex
	r    tripline.NamedReadCloser
	done bool
}

func (rs *rawSource) NextReader() (tripline.NamedReadCloser, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.done {
		return nil, io.EOF
	}
	rs.done = true
	return rs.r, nil
}

// streamReader turns record-at-a-time lines into a newline separated byte
// stream.
type streamReader struct {
	src  tripline.Source
	name string
	buf  []byte
	err  error
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		rec, err := r.src.Record()
		if err != nil {
			r.err = err
			continue
		}
		line, ok := rec.([]byte)
		if !ok {
			r.err = errors.Errorf("record is %T, want []byte", rec)
			continue
		}
		r.buf = append(r.buf, line...)
		r.buf = append(r.buf, '\n')
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *streamReader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *streamReader) Name() string { return r.name }
