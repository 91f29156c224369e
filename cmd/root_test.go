package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	adaptermocks "github.com/mouse-blink/gorewrite/internal/adapter/mocks"
	"github.com/mouse-blink/gorewrite/internal/config"
	"github.com/mouse-blink/gorewrite/internal/domain"
	domainmocks "github.com/mouse-blink/gorewrite/internal/domain/mocks"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// mockContext matches the command context handed to the workflow.
const mockContext = mock.Anything

// sessionCall records how a command asked for its session.
type sessionCall struct {
	opened    bool
	withStore bool
	closed    bool
}

// useWorkflow makes every command run against w for the duration of the test.
func useWorkflow(t *testing.T, w domain.Workflow) *sessionCall {
	t.Helper()

	t.Chdir(t.TempDir())

	call := &sessionCall{}
	original := newSession
	newSession = func(_ *cobra.Command, withStore bool) (Session, error) {
		call.opened = true
		call.withStore = withStore

		return Session{Workflow: w, Close: func() error {
			call.closed = true
			return nil
		}}, nil
	}

	t.Cleanup(func() { newSession = original })

	return call
}

// testRoot builds a root command with sub attached and its output captured.
func testRoot(sub *cobra.Command) (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}

	cmd := newRootCmd()
	cmd.AddCommand(sub)
	cmd.SetOut(out)
	cmd.SetErr(out)

	return cmd, out
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()

	assert.Equal(t, "gorewrite", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"config", "state", "recipes-dir", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s flag", name)
	}
}

func TestRootCmd_LoadsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state_path: /tmp/custom.db\nverbose: true\n"), 0o600))

	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)
	mockWorkflow.On("List", mockContext).Return(nil)

	cmd, _ := testRoot(newListCmd())
	cmd.SetArgs([]string{"--config", path, "list"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, cfg)
	assert.Equal(t, path, cfg.FileUsed)
	assert.Equal(t, "/tmp/custom.db", cfg.StatePath)
	assert.True(t, cfg.Verbose)
}

func TestRootCmd_FlagsOverrideConfig(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)
	mockWorkflow.On("List", mockContext).Return(nil)

	cmd, _ := testRoot(newListCmd())
	cmd.SetArgs([]string{"--state", "/tmp/flag.db", "list"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/tmp/flag.db", cfg.StatePath)
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	call := useWorkflow(t, mockWorkflow)

	cmd, _ := testRoot(newListCmd())
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "list"})

	require.Error(t, cmd.Execute())
	assert.False(t, call.opened)
}

func TestProjectRoot(t *testing.T) {
	t.Run("inside a module", func(t *testing.T) {
		fs := adaptermocks.NewMockSourceFSAdapter(t)
		fs.On("FindProjectRoot", m.Path("/work/proj/sub/pkg")).Return(m.Path("/work/proj"), nil)

		root, rel := projectRoot(fs, "/work/proj/sub/pkg")
		assert.Equal(t, "/work/proj", root)
		assert.Equal(t, filepath.Join("sub", "pkg"), rel)
	})

	t.Run("outside a module", func(t *testing.T) {
		fs := adaptermocks.NewMockSourceFSAdapter(t)
		fs.On("FindProjectRoot", m.Path("/work/loose")).Return(m.Path(""), fmt.Errorf("go.mod not found"))

		root, rel := projectRoot(fs, "/work/loose")
		assert.Equal(t, "/work/loose", root)
		assert.Equal(t, ".", rel)
	})
}

func TestRootCmd_FromSubdirectory(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/proj\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gorewrite.yaml"), []byte("state_path: custom.db\n"), 0o600))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	t.Chdir(sub)

	mockWorkflow.On("Run", mockContext, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Dir == dir &&
			len(args.Patterns) == 1 && args.Patterns[0] == "./sub/..." &&
			args.PatchPath == m.Path(filepath.Join(dir, config.DefaultPatchPath))
	})).Return(m.Run{}, nil)

	cmd, _ := testRoot(newRunCmd())
	cmd.SetArgs([]string{"run"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, filepath.Join(dir, ".gorewrite.yaml"), cfg.FileUsed)
	assert.Equal(t, filepath.Join(dir, "custom.db"), cfg.StatePath)
}

func TestWithSession_SessionError(t *testing.T) {
	original := newSession
	newSession = func(*cobra.Command, bool) (Session, error) { return Session{}, fmt.Errorf("no database") }
	t.Cleanup(func() { newSession = original })

	err := withSession(&cobra.Command{}, true, func(context.Context, domain.Workflow) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.EqualError(t, err, "no database")
}

func TestWithSession_CloseError(t *testing.T) {
	original := newSession
	newSession = func(*cobra.Command, bool) (Session, error) {
		return Session{Close: func() error { return fmt.Errorf("busy") }}, nil
	}
	t.Cleanup(func() { newSession = original })

	err := withSession(&cobra.Command{}, false, func(context.Context, domain.Workflow) error { return nil })
	assert.EqualError(t, err, "closing session: busy")
}

func TestOpenSession(t *testing.T) {
	original := cfg
	t.Cleanup(func() { cfg = original })

	dir := t.TempDir()
	cfg = &config.Config{
		ProjectRoot: dir,
		StatePath:   filepath.Join(dir, ".gorewrite", "state.db"),
	}

	t.Run("without store", func(t *testing.T) {
		session, err := openSession(&cobra.Command{}, false)
		require.NoError(t, err)
		assert.NotNil(t, session.Workflow)
		require.NoError(t, session.Close())
		assert.NoFileExists(t, cfg.StatePath)
	})

	t.Run("with store", func(t *testing.T) {
		session, err := openSession(&cobra.Command{}, true)
		require.NoError(t, err)
		assert.NotNil(t, session.Workflow)
		require.NoError(t, session.Close())
		assert.FileExists(t, cfg.StatePath)
	})
}

func TestExecute_WithError(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() {
		rootCmd = originalRootCmd
	}()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("command failed")
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	// Execute would call os.Exit(1); check the command itself errors
	err := rootCmd.Execute()
	if err == nil {
		t.Error("Expected command to return an error")
	}
}

func TestExecute_ProcessLevel_Success(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Println("success")
				return nil
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Success")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS=1")
	output, err := cmd.CombinedOutput()

	if err != nil {
		t.Errorf("Process exited with error: %v, output: %s", err, output)
	}

	if !strings.Contains(string(output), "success") {
		t.Errorf("Expected 'success' in output, got: %s", output)
	}
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute() // This should call os.Exit(1)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Error("Expected process to exit with error")
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		if exitErr.ExitCode() != 1 {
			t.Errorf("Expected exit code 1, got %d", exitErr.ExitCode())
		}
	} else {
		t.Errorf("Expected exec.ExitError, got %T", err)
	}

	if !strings.Contains(string(output), "error occurred") {
		t.Logf("Output: %s", output)
	}
}
