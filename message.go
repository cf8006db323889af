package openpgp

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/vaultsandbox/openpgp-go/crypto"
	"github.com/vaultsandbox/openpgp-go/internal/backend"
)

// stageKind orders the pipeline stages from outermost to innermost.
type stageKind int

const (
	kindMessage stageKind = iota
	kindArmor
	kindEncrypt
	kindSign
	kindLiteral
)

func (k stageKind) String() string {
	switch k {
	case kindMessage:
		return "message"
	case kindArmor:
		return "armor"
	case kindEncrypt:
		return "encrypt"
	case kindSign:
		return "sign"
	case kindLiteral:
		return "literal"
	}
	return "unknown"
}

type stageState int

const (
	stateLive stageState = iota
	stateFinalized
	stateAborted
)

// stage is the behavior of one pipeline element.
type stage interface {
	// write consumes bytes coming from the caller or from the inner stage.
	write(p []byte) error
	// finalize flushes buffered data and writes trailers to the outer stage.
	finalize() error
	// abort releases secrets without writing anything.
	abort()
}

// Message is one stage of a streaming writer pipeline. The root Message
// writes to the caller's sink; every other stage wraps an outer Message.
//
// Stages nest outer to inner as message, armor, encrypt, sign, literal.
// Each stage is finalized exactly once, innermost first. A Message is not
// safe for concurrent use.
type Message struct {
	kind   stageKind
	cfg    *messageConfig
	outer  *Message
	inner  *Message
	stage  stage
	state  stageState
	err    error
	logger logrus.FieldLogger
}

// NewMessage returns the root of a pipeline writing to sink.
func NewMessage(sink io.Writer, opts ...MessageOption) *Message {
	cfg := &messageConfig{
		logger:  discardLogger(),
		backend: backend.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Message{
		kind:   kindMessage,
		cfg:    cfg,
		stage:  &sinkStage{w: sink},
		logger: cfg.logger.WithField("stage", kindMessage.String()),
	}
}

// sinkStage forwards bytes to the caller's writer.
type sinkStage struct {
	w io.Writer
}

func (s *sinkStage) write(p []byte) error {
	if _, err := s.w.Write(p); err != nil {
		return &SinkError{Err: err}
	}
	return nil
}

func (s *sinkStage) finalize() error { return nil }

func (s *sinkStage) abort() {}

// attach validates nesting and links a new stage inside outer.
func attach(outer *Message, kind stageKind) (*Message, error) {
	if outer == nil {
		return nil, &StageError{Stage: kind.String(), Op: "build", Err: fmt.Errorf("%w: nil message", ErrInvalidArgument)}
	}
	if kind <= outer.kind {
		return nil, &StageError{Stage: kind.String(), Op: "build",
			Err: fmt.Errorf("%w: %s stage cannot be nested inside %s", ErrInvalidArgument, kind, outer.kind)}
	}
	if outer.state != stateLive {
		return nil, &StageError{Stage: kind.String(), Op: "build", Err: fmt.Errorf("%w: outer %s stage is closed", ErrSequencing, outer.kind)}
	}
	if outer.inner != nil && outer.inner.state == stateLive {
		return nil, &StageError{Stage: kind.String(), Op: "build", Err: fmt.Errorf("%w: outer %s stage already has a live inner stage", ErrSequencing, outer.kind)}
	}
	if outer.err != nil {
		return nil, &StageError{Stage: kind.String(), Op: "build", Err: outer.err}
	}
	m := &Message{
		kind:   kind,
		cfg:    outer.cfg,
		outer:  outer,
		logger: outer.cfg.logger.WithField("stage", kind.String()),
	}
	return m, nil
}

// link publishes m as the inner stage of its outer stage once it has been
// fully constructed.
func (m *Message) link(s stage) *Message {
	m.stage = s
	m.outer.inner = m
	return m
}

func (m *Message) backend() crypto.Provider {
	return m.cfg.backend
}

func (m *Message) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: m.kind.String(), Op: op, Err: err}
}

// fail records a sticky error. Later writes and finalization return it.
func (m *Message) fail(err error) error {
	if m.err == nil {
		m.err = err
	}
	return err
}

// Write streams p into the stage.
func (m *Message) Write(p []byte) (int, error) {
	if err := m.checkWritable(); err != nil {
		return 0, m.wrap("write", err)
	}
	var err error
	if s, ok := m.stage.(*signer); ok {
		if !s.detached {
			err = fmt.Errorf("%w: a non-detached signer takes data through a literal stage", ErrInvalidArgument)
			return 0, m.wrap("write", err)
		}
		err = s.hash(p)
	} else {
		err = m.stage.write(p)
	}
	if err != nil {
		return 0, m.wrap("write", m.fail(err))
	}
	return len(p), nil
}

func (m *Message) checkWritable() error {
	switch {
	case m.state == stateFinalized:
		return fmt.Errorf("%w: write after finalize", ErrSequencing)
	case m.state == stateAborted:
		return fmt.Errorf("%w: write after abort", ErrSequencing)
	case m.inner != nil && m.inner.state == stateLive:
		return fmt.Errorf("%w: write while an inner stage is open", ErrSequencing)
	case m.err != nil:
		return m.err
	}
	return nil
}

// emit receives bytes from the inner stage.
func (m *Message) emit(p []byte) error {
	if m.state != stateLive {
		return fmt.Errorf("%w: %s stage is closed", ErrSequencing, m.kind)
	}
	if m.err != nil {
		return m.err
	}
	if err := m.stage.write(p); err != nil {
		return m.fail(err)
	}
	return nil
}

// outerWriter adapts the outer stage's emit to io.Writer.
type outerWriter struct {
	m *Message
}

func (w outerWriter) Write(p []byte) (int, error) {
	if err := w.m.emit(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// FinalizeOne finalizes this stage only. The inner stage, if any, must be
// finalized already. It may be called exactly once.
func (m *Message) FinalizeOne() error {
	switch {
	case m.state == stateFinalized:
		return m.wrap("finalize", fmt.Errorf("%w: stage already finalized", ErrSequencing))
	case m.state == stateAborted:
		return m.wrap("finalize", fmt.Errorf("%w: stage was aborted", ErrSequencing))
	case m.inner != nil && m.inner.state == stateLive:
		return m.wrap("finalize", fmt.Errorf("%w: inner %s stage is not finalized", ErrSequencing, m.inner.kind))
	}
	if m.err != nil {
		m.Abort()
		return m.wrap("finalize", m.err)
	}
	err := m.stage.finalize()
	m.state = stateFinalized
	if err != nil {
		m.fail(err)
		m.abortOuter()
		return m.wrap("finalize", err)
	}
	m.logger.Debug("stage finalized")
	return nil
}

// Finalize finalizes this stage and then every outer stage.
func (m *Message) Finalize() error {
	for s := m; s != nil; s = s.outer {
		if err := s.FinalizeOne(); err != nil {
			return err
		}
	}
	return nil
}

// Close is Finalize, so a Message can be used as an io.WriteCloser.
func (m *Message) Close() error {
	return m.Finalize()
}

// Abort discards the pipeline that m belongs to and zeroes its secrets.
// Nothing further is written to the sink. Abort is idempotent.
func (m *Message) Abort() {
	inner := m
	for inner.inner != nil {
		inner = inner.inner
	}
	for s := inner; s != nil; s = s.outer {
		if s.state == stateLive {
			s.stage.abort()
			s.state = stateAborted
		}
	}
}

// abortOuter releases secrets held by the enclosing stages after a failed
// finalization.
func (m *Message) abortOuter() {
	for s := m.outer; s != nil; s = s.outer {
		if s.state == stateLive {
			s.stage.abort()
			s.state = stateAborted
		}
	}
}
