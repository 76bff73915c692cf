package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"rehearse/internal/config"
	"rehearse/internal/output"
)

// roundaboutRoute has a lead-in followed by a roundabout with an exit ordinal.
const roundaboutRoute = `{
  "routes": [{
    "summary": "A40",
    "legs": [{
      "distance": {"value": 1400, "text": "1.4 km"},
      "steps": [
        {
          "start_location": {"lat": 51.5000, "lng": -0.1200},
          "end_location": {"lat": 51.5050, "lng": -0.1200},
          "distance": {"value": 600, "text": "0.6 km"},
          "html_instructions": "Head <b>north</b> on Park Road"
        },
        {
          "start_location": {"lat": 51.5050, "lng": -0.1200},
          "end_location": {"lat": 51.5050, "lng": -0.1100},
          "distance": {"value": 800, "text": "0.8 km"},
          "html_instructions": "At the roundabout, take the <b>2nd</b> exit",
          "maneuver": "roundabout-right"
        }
      ]
    }]
  }]
}`

// quietRoute has no step worth rehearsing.
const quietRoute = `{
  "routes": [{
    "summary": "B100",
    "legs": [{
      "steps": [
        {
          "start_location": {"lat": 51.5, "lng": -0.12},
          "end_location": {"lat": 51.51, "lng": -0.12},
          "distance": {"value": 1000, "text": "1 km"},
          "html_instructions": "Continue straight"
        }
      ]
    }]
  }]
}`

// testApp is an App writing to a buffer with history in a temp directory.
type testApp struct {
	*App
	out         *bytes.Buffer
	historyPath string
}

// newTestApp isolates the working directory and pattern discovery so local
// files cannot leak into the run.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("REHEARSE_PATTERNS_PATH", "")
	t.Setenv("REHEARSE_CONFIG_PATH", "")

	cfg := config.DefaultConfig()
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Log.Level = "off"

	buf := &bytes.Buffer{}
	return &testApp{
		App: &App{
			Config:  cfg,
			Printer: output.NewPrinterWithWriter(buf),
		},
		out:         buf,
		historyPath: cfg.History.Path,
	}
}

// run executes the root command with args and returns the error.
func (a *testApp) run(args ...string) error {
	cmd := NewRootCommand(a.App)
	cmd.SetOut(a.out)
	cmd.SetErr(a.out)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// writeRoute writes a routing result into the current directory.
func writeRoute(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(".", name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write route file: %v", err)
	}
	return path
}
