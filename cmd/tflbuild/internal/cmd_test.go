package internal

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goplus/tflbuild/pkgs/buildsys"
	"github.com/goplus/tflbuild/pkgs/buildsys/buildsystest"
)

// execute runs the root command with args and fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile, verbose, logFormat, targetArch, targetOS = "", false, "console", "", ""
	prepareCgoOut, prepareCgoPkg = "", "tflite"
	locateName = "tensorflow-lite"
	planDir = ""
	statusDir, statusVerify = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func useRunner(t *testing.T, r buildsys.Runner) {
	t.Helper()
	saved := runner
	runner = r
	t.Cleanup(func() { runner = saved })
}

func TestVariantCmd(t *testing.T) {
	t.Setenv("TFLITE_GPU", "1")
	t.Setenv("TFLITE_DEBUG", "true")

	out, err := execute(t, "variant", "--arch", "x86_64", "--os", "linux")
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	for _, want := range []string{
		"key: -debug-gpu\n",
		"library: tensorflow-lite-debug-gpu\n",
		"shared: libtensorflow-lite-debug-gpu.so\n",
		"static: libtensorflow-lite-debug-gpu.a\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVariantCmdNoArch(t *testing.T) {
	t.Setenv("GOARCH", "")
	if _, err := execute(t, "variant"); err == nil {
		t.Fatal("variant without an architecture succeeded")
	}
}

func TestPrepareCmdPrebuilt(t *testing.T) {
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "libtensorflow-lite.so"), "tflite")
	writeFile(t, filepath.Join(lib, "libedgetpu.so.1"), "tpu")
	outDir := filepath.Join(t.TempDir(), "out")
	t.Setenv("TFLITE_LIB_DIR", lib)
	t.Setenv("TFLITE_OUT_DIR", outDir)

	rec := &buildsystest.Recorder{}
	useRunner(t, rec)

	cgoFile := filepath.Join(t.TempDir(), "gen", "zlink.go")
	out, err := execute(t, "prepare", "--arch", "arm64", "--os", "linux", "--cgo-out", cgoFile, "--cgo-package", "lite")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(rec.Cmds) != 0 {
		t.Errorf("build tool invoked: %v", rec.Lines())
	}
	for _, want := range []string{
		"link-search=" + outDir + "\n",
		"link-lib=dylib=tensorflow-lite\n",
		"link-lib=dylib=edgetpu\n",
		"rerun-if-env-changed=TFLITE_LIB_DIR\n",
		"rerun-if-changed=" + lib + "\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(cgoFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"//go:build linux && arm64", "package lite", "#cgo LDFLAGS: -ltensorflow-lite"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("cgo file missing %q:\n%s", want, data)
		}
	}

	status, err := execute(t, "status", "--dir", outDir, "--verify")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(status, "source: prebuilt") || !strings.Contains(status, "name: libedgetpu.so.1") {
		t.Errorf("status output:\n%s", status)
	}

	writeFile(t, filepath.Join(outDir, "libedgetpu.so.1"), "tampered")
	status, err = execute(t, "status", "--dir", outDir, "--verify")
	if err == nil || !strings.Contains(status, "modified: libedgetpu.so.1") {
		t.Errorf("verify after change: err %v, output:\n%s", err, status)
	}
}

func TestPrepareCmdBuildFailure(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "android":
	default:
		t.Skipf("unsupported host %s", runtime.GOOS)
	}
	t.Setenv("TFLITE_LIB_DIR", "")
	t.Setenv("TFLITE_SOURCE_DIR", t.TempDir())
	t.Setenv("TFLITE_OUT_DIR", t.TempDir())
	useRunner(t, &buildsystest.Recorder{Fail: "--build"})

	out, err := execute(t, "prepare", "--arch", runtime.GOARCH, "--os", runtime.GOOS)
	var se *buildsys.StepError
	if !errors.As(err, &se) || se.Step != "build" {
		t.Fatalf("err = %v, want build StepError", err)
	}
	if out != "" {
		t.Errorf("directives printed after failure:\n%s", out)
	}
}

func TestLocateCmd(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, "execroot", "bazel-out", "bin", "tensorflow", "lite", "libtensorflowlite.so")
	writeFile(t, want, "x")
	writeFile(t, filepath.Join(root, "libother.so"), "y")

	out, err := execute(t, "locate", root, "--name", "tensorflowlite", "--os", "linux")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if out != want+"\n" {
		t.Errorf("locate output = %q, want %q", out, want+"\n")
	}

	if _, err := execute(t, "locate", root, "--os", "linux"); err == nil {
		t.Error("locate of absent library succeeded")
	}
}

func TestPlanCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "libtensorflow-lite.a"), "a")
	writeFile(t, filepath.Join(dir, "libfoo.so"), "b")
	writeFile(t, filepath.Join(dir, "libfoo.so.1"), "c")
	t.Setenv("TFLITE_LIB_DIR", "")

	out, err := execute(t, "plan", "--dir", dir, "--arch", "amd64", "--os", "linux")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := strings.Join([]string{
		"link-search=" + dir,
		"link-lib=static=tensorflow-lite",
		"link-lib=dylib=foo",
		"link-lib=dylib=pthread",
		"link-lib=dylib=dl",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("plan output =\n%s\nwant\n%s", out, want)
	}
}

func TestVariantCmdConfigFile(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "tflbuild.yaml")
	writeFile(t, conf, "library: tflite\nbackend: bazel\nfeatures:\n  no_micro: true\n")
	t.Setenv("TFLITE_BACKEND", "")
	t.Setenv("TFLITE_NO_MICRO", "")

	out, err := execute(t, "variant", "--config", conf, "--arch", "amd64", "--os", "linux")
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	for _, want := range []string{"key: -no_micro\n", "library: tflite-no_micro\n", "backend: bazel\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
