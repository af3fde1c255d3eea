package host

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reglet-dev/reglet-extensions/application/config"
	"github.com/reglet-dev/reglet-extensions/domain/entities"
	domainerrors "github.com/reglet-dev/reglet-extensions/domain/errors"
	"github.com/reglet-dev/reglet-extensions/extension"
	"github.com/reglet-dev/reglet-extensions/hostfuncs"
	infrawazero "github.com/reglet-dev/reglet-extensions/infrastructure/wazero"
	"github.com/reglet-dev/reglet-extensions/internal/testutil"
)

const generousGas = int64(5 * time.Second)

// ExecutorSuite runs hand-assembled guests on a real runtime.
type ExecutorSuite struct {
	suite.Suite
	ctx      context.Context
	executor *Executor
	logs     bytes.Buffer
}

func (s *ExecutorSuite) SetupTest() {
	s.ctx = context.Background()
	s.logs.Reset()
	logger := slog.New(slog.NewTextHandler(&s.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e, err := NewExecutor(s.ctx,
		WithLogger(logger),
		WithExtensions(func() *extension.Extensions {
			exts := extension.New()
			exts.Register(hostfuncs.NewStorage(map[string]string{"greeting": "hello"}))
			return exts
		}),
	)
	s.Require().NoError(err)
	s.executor = e
}

func (s *ExecutorSuite) TearDownTest() {
	s.Require().NoError(s.executor.Close(s.ctx))
}

func (s *ExecutorSuite) requireProgramError(err error, want entities.ProgramErrorCode) {
	s.T().Helper()
	var progErr *domainerrors.ProgramError
	s.Require().ErrorAs(err, &progErr)
	s.Equal(want, progErr.Code, "error: %v", err)
}

func (s *ExecutorSuite) TestDefaultRegistry() {
	names := s.executor.Registry().Names()
	s.Contains(names, hostfuncs.FuncExtensionList)
	s.Contains(names, hostfuncs.FuncStorageGet)
	s.Contains(names, hostfuncs.FuncMetricUpdate)
}

func (s *ExecutorSuite) TestRun_Echo() {
	out, gasUsed, err := s.executor.Run(s.ctx, testutil.EchoGuest(), []byte("ping"), generousGas)
	s.Require().NoError(err)
	s.Equal([]byte("ping"), out)
	s.Positive(gasUsed)
	s.LessOrEqual(gasUsed, generousGas)
}

func (s *ExecutorSuite) TestRun_EmptyInput() {
	out, _, err := s.executor.Run(s.ctx, testutil.EchoGuest(), nil, generousGas)
	s.Require().NoError(err)
	s.Empty(out)
}

func (s *ExecutorSuite) TestRun_InvalidProgram() {
	_, _, err := s.executor.Run(s.ctx, []byte("not wasm"), nil, generousGas)
	s.requireProgramError(err, entities.ProgramErrorInvalidFormat)
}

func (s *ExecutorSuite) TestRun_Trap() {
	_, _, err := s.executor.Run(s.ctx, testutil.TrapGuest(), nil, generousGas)
	s.requireProgramError(err, entities.ProgramErrorTrap)
}

func (s *ExecutorSuite) TestRun_OutOfGas() {
	gas := int64(50 * time.Millisecond)
	_, gasUsed, err := s.executor.Run(s.ctx, testutil.LoopGuest(), nil, gas)
	s.requireProgramError(err, entities.ProgramErrorWeightLimit)
	s.Equal(gas, gasUsed)
}

func (s *ExecutorSuite) TestRun_NoGas() {
	_, _, err := s.executor.Run(s.ctx, testutil.EchoGuest(), nil, 0)
	s.requireProgramError(err, entities.ProgramErrorWeightLimit)
}

func (s *ExecutorSuite) TestRun_MemoryAccess() {
	_, _, err := s.executor.Run(s.ctx, testutil.OutOfBoundsGuest(), nil, generousGas)
	s.requireProgramError(err, entities.ProgramErrorMemoryAccess)
}

func (s *ExecutorSuite) TestRun_HostFunctionSeesRunExtensions() {
	guest := testutil.CallerGuest(testutil.HostImport{Module: infrawazero.DefaultModuleName, Name: hostfuncs.FuncStorageGet})

	out, _, err := s.executor.Run(s.ctx, guest, []byte(`{"key":"greeting"}`), generousGas)
	s.Require().NoError(err)

	resp := testutil.DecodeJSON[hostfuncs.StorageGetResponse](s.T(), out)
	s.True(resp.Found)
	s.Equal("hello", resp.Value)
}

func (s *ExecutorSuite) TestPluginInstance_Extensions() {
	guest := testutil.CallerGuest(testutil.HostImport{Module: infrawazero.DefaultModuleName, Name: hostfuncs.FuncStorageGet})

	inst, err := s.executor.LoadPlugin(s.ctx, guest,
		WithInstanceExtensions(extension.New()),
		WithPluginName("kv-reader"),
	)
	s.Require().NoError(err)
	defer func() { s.NoError(inst.Close(s.ctx)) }()
	s.Contains(s.logs.String(), "host functions unavailable")
	s.Contains(s.logs.String(), "plugin=kv-reader")

	out, err := inst.Call(s.ctx, EntryPoint, []byte(`{"key":"greeting"}`))
	s.Require().NoError(err)
	testutil.AssertErrorResponse(s.T(), out, "NOT_REGISTERED")

	extra := extension.New()
	extra.Register(hostfuncs.NewStorage(map[string]string{"greeting": "merged"}))
	inst.MergeExtensions(extra)
	s.Zero(extra.Len())

	out, err = inst.Call(s.ctx, EntryPoint, []byte(`{"key":"greeting"}`))
	s.Require().NoError(err)
	resp := testutil.DecodeJSON[hostfuncs.StorageGetResponse](s.T(), out)
	s.Equal("merged", resp.Value)
	s.Contains(s.logs.String(), "function=storage_get")
	s.Contains(s.logs.String(), "plugin=kv-reader export=main")
}

func (s *ExecutorSuite) TestPluginInstance_ExtensionList() {
	guest := testutil.CallerGuest(testutil.HostImport{Module: infrawazero.DefaultModuleName, Name: hostfuncs.FuncExtensionList})

	inst, err := s.executor.LoadPlugin(s.ctx, guest)
	s.Require().NoError(err)
	defer func() { s.NoError(inst.Close(s.ctx)) }()

	out, err := inst.Call(s.ctx, EntryPoint, nil)
	s.Require().NoError(err)
	resp := testutil.DecodeJSON[hostfuncs.ListExtensionsResponse](s.T(), out)
	s.Equal([]string{extension.TypeFor[*hostfuncs.Storage]().String()}, resp.Types)
}

func (s *ExecutorSuite) TestPluginInstance_MissingExport() {
	inst, err := s.executor.LoadPlugin(s.ctx, testutil.EchoGuest())
	s.Require().NoError(err)
	defer func() { s.NoError(inst.Close(s.ctx)) }()

	_, err = inst.Call(s.ctx, "observe", nil)
	s.ErrorIs(err, ErrExportNotFound)
}

func (s *ExecutorSuite) TestPluginInstance_CloseReleasesExtensions() {
	exts := extension.New()
	closed := &closeTracker{}
	exts.Register(closed)

	inst, err := s.executor.LoadPlugin(s.ctx, testutil.EchoGuest(), WithInstanceExtensions(exts))
	s.Require().NoError(err)
	s.Same(exts, inst.Extensions())

	s.Require().NoError(inst.Close(s.ctx))
	s.True(closed.closed)
	s.Zero(exts.Len())
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

type closeTracker struct {
	closed bool
}

func (c *closeTracker) AsAny() any { return c }

func (c *closeTracker) ExtensionType() extension.TypeID { return extension.TypeFor[*closeTracker]() }

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestNewExecutor_RuntimeConfig(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default().Runtime
	cfg.ModuleName = "custom_host"

	e, err := NewExecutor(ctx, WithRuntimeConfig(cfg))
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	defer func() { _ = e.Close(ctx) }()

	guest := testutil.CallerGuest(testutil.HostImport{Module: "custom_host", Name: hostfuncs.FuncExtensionList})
	out, _, err := e.Run(ctx, guest, nil, generousGas)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Contains(out, []byte(`"types":[]`)) {
		t.Errorf("unexpected output %s", out)
	}
}
