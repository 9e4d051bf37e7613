// Package wallet exposes the wallet operations to a host application as a
// request/response service. Requests and responses are JSON documents whose
// field names follow the host contract.
package wallet

import (
	"crypto/rand"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"go.uber.org/zap"
)

// Operation names a host operation.
type Operation string

const (
	OpCreateTransfer          Operation = "create_transfer"
	OpCreateEncryptedTransfer Operation = "create_encrypted_transfer"
	OpCreatePubToSecTransfer  Operation = "create_pub_to_sec_transfer"
	OpCreateSecToPubTransfer  Operation = "create_sec_to_pub_transfer"
	OpCombineEncryptedAmounts Operation = "combine_encrypted_amounts"
	OpCreateIdRequest         Operation = "create_id_request_and_private_data"
	OpCreateCredential        Operation = "create_credential"
	OpGenerateAccounts        Operation = "generate_accounts"
	OpDecryptEncryptedAmount  Operation = "decrypt_encrypted_amount"
	OpCheckAccountAddress     Operation = "check_account_address"
)

// Operations lists every operation Invoke accepts.
var Operations = []Operation{
	OpCreateTransfer,
	OpCreateEncryptedTransfer,
	OpCreatePubToSecTransfer,
	OpCreateSecToPubTransfer,
	OpCombineEncryptedAmounts,
	OpCreateIdRequest,
	OpCreateCredential,
	OpGenerateAccounts,
	OpDecryptEncryptedAmount,
	OpCheckAccountAddress,
}

// DefaultTableSize is the number of baby steps used when no table artifact is
// configured.
const DefaultTableSize = 1 << 16

// Config selects where the discrete logarithm table comes from.
type Config struct {
	Table TableConfig `mapstructure:"table"`
	Log   LogConfig   `mapstructure:"log"`
}

type TableConfig struct {
	// Path of a table written by WriteTo. Empty means build in memory.
	Path string `mapstructure:"path"`
	Size uint64 `mapstructure:"size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// builtTables caches in-memory tables by size. Tables are read-only once built.
var builtTables sync.Map

// LoadTable reads the table at cfg.Path, or builds one of cfg.Size baby steps
// over the BLS12-381 G1 generator. A built table is computed once per process.
func LoadTable(cfg TableConfig) (*elgamal.BabyStepGiantStep, error) {
	GP := group.BLS12381G1()
	if cfg.Path == "" {
		size := cfg.Size
		if size == 0 {
			size = DefaultTableSize
		}
		if table, ok := builtTables.Load(size); ok {
			return table.(*elgamal.BabyStepGiantStep), nil
		}
		table, _ := builtTables.LoadOrStore(size, elgamal.NewBabyStepGiantStep(GP.Generator(), size))
		return table.(*elgamal.BabyStepGiantStep), nil
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "opening table")
	}
	defer f.Close()
	table, err := elgamal.ReadBabyStepGiantStep(f, GP)
	if err != nil {
		return nil, errors.Wrapf(err, "reading table %s", cfg.Path)
	}
	return table, nil
}

// Service runs wallet operations. It keeps no per-request state and is safe
// for concurrent use as long as its random source is.
type Service struct {
	logger *zap.Logger
	table  *elgamal.BabyStepGiantStep
	rng    io.Reader
}

type Option func(*Service)

// WithLogger sets the logger. Requests and secrets are never logged.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRand sets the random source, crypto/rand.Reader by default.
func WithRand(rng io.Reader) Option {
	return func(s *Service) { s.rng = rng }
}

// New returns a service decrypting with table.
func New(table *elgamal.BabyStepGiantStep, opts ...Option) *Service {
	s := &Service{
		logger: zap.NewNop(),
		table:  table,
		rng:    rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig loads the table described by cfg and returns a service
// using it.
func NewFromConfig(cfg Config, opts ...Option) (*Service, error) {
	table, err := LoadTable(cfg.Table)
	if err != nil {
		return nil, err
	}
	return New(table, opts...), nil
}

// Response is the outcome of Invoke. Payload holds the response document when
// Success is set and an error message otherwise.
type Response struct {
	Payload []byte
	Success bool
}

// Free overwrites the payload, which may contain secret keys, and drops it.
func (r *Response) Free() {
	if r == nil {
		return
	}
	for i := range r.Payload {
		r.Payload[i] = 0
	}
	r.Payload = nil
}

func (r *Response) String() string {
	return string(r.Payload)
}

func failure(err error) *Response {
	return &Response{Payload: []byte("Could not produce response: " + err.Error())}
}

type handler func(s *Service, inputs [][]byte) ([]byte, error)

var handlers = map[Operation]struct {
	inputs int
	run    handler
}{
	OpCreateTransfer:          {1, (*Service).createTransfer},
	OpCreateEncryptedTransfer: {1, (*Service).createEncryptedTransfer},
	OpCreatePubToSecTransfer:  {1, (*Service).createPubToSecTransfer},
	OpCreateSecToPubTransfer:  {1, (*Service).createSecToPubTransfer},
	OpCombineEncryptedAmounts: {2, (*Service).combineEncryptedAmounts},
	OpCreateIdRequest:         {1, (*Service).createIdRequest},
	OpCreateCredential:        {1, (*Service).createCredential},
	OpGenerateAccounts:        {1, (*Service).generateAccounts},
	OpDecryptEncryptedAmount:  {1, (*Service).decryptEncryptedAmount},
	OpCheckAccountAddress:     {1, (*Service).checkAccountAddress},
}

// Invoke runs op on inputs. The caller owns the returned response and should
// Free it once consumed.
func (s *Service) Invoke(op Operation, inputs ...[]byte) *Response {
	start := time.Now()
	resp := s.invoke(op, inputs)
	s.logger.Debug("wallet operation",
		zap.String("operation", string(op)),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("success", resp.Success))
	return resp
}

func (s *Service) invoke(op Operation, inputs [][]byte) *Response {
	h, ok := handlers[op]
	if !ok {
		return failure(errors.Errorf("unknown operation %q", op))
	}
	if len(inputs) != h.inputs {
		return failure(errors.Errorf("%s takes %d inputs, got %d", op, h.inputs, len(inputs)))
	}
	for _, in := range inputs {
		if in == nil {
			return failure(errors.New("Null pointer input."))
		}
	}
	payload, err := h.run(s, inputs)
	if err != nil {
		s.logger.Info("wallet operation failed", zap.String("operation", string(op)), zap.Error(err))
		return failure(err)
	}
	return &Response{Payload: payload, Success: true}
}
