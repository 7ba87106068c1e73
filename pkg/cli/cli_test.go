package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/collection"
	"github.com/getmockd/carshop/pkg/form"
	"github.com/getmockd/carshop/pkg/stub"
)

type harness struct {
	t       *testing.T
	srv     *stub.Server
	url     string
	env     map[string]string
	workDir string
	stdout  bytes.Buffer
	stderr  bytes.Buffer

	prompt  draftPrompter
	confirm confirmPrompter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, err := stub.New(stub.WithSeed(stub.SampleCars()...))
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	return &harness{
		t:       t,
		srv:     srv,
		url:     ts.URL,
		env:     map[string]string{"CARSHOP_BASE_URL": ts.URL},
		workDir: t.TempDir(),
		prompt: func(context.Context, string, car.Draft) (car.Draft, error) {
			t.Fatal("unexpected form prompt")
			return car.Draft{}, nil
		},
		confirm: func(string) collection.Confirmer {
			t.Fatal("unexpected confirm prompt")
			return nil
		},
	}
}

// run executes args against a fresh command tree, clearing earlier output.
func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	o := &rootOptions{
		stdout:  &h.stdout,
		stderr:  &h.stderr,
		getenv:  func(k string) string { return h.env[k] },
		workDir: h.workDir,
		prompt:  h.prompt,
		confirm: h.confirm,
	}
	cmd := newRootCommand(o)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

var saab = []string{"--brand", "Saab", "--model", "900", "--color", "Black", "--fuel", "Petrol", "--year", "1991", "--price", "4500"}

func TestList(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("list"))

	out := h.stdout.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "BRAND")
	assert.Contains(t, out, "Mustang")
	assert.Contains(t, out, "Page 1 of 1 (4 cars)")
}

func TestList_JSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("list", "--json", "--sort", "price", "--page-size", "3"))

	var got listOutput
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, 2, got.Pages)
	assert.Equal(t, 4, got.Total)
	require.Len(t, got.Cars, 3)
	assert.Equal(t, "Leaf", got.Cars[0].Model)
	assert.Equal(t, "2", got.Cars[0].ID)
}

func TestList_FiltersAndWhere(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		total int
	}{
		{"substring", []string{"--filter", "fuel=elec"}, 1},
		{"glob", []string{"--filter", "model=?eaf"}, 1},
		{"two filters", []string{"--filter", "fuel=e", "--filter", "color=white"}, 1},
		{"where", []string{"--where", "price > 40000"}, 2},
		{"where and filter", []string{"--where", "modelYear >= 2014", "--filter", "brand=o"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.run(append([]string{"list", "--json"}, tt.args...)...))
			var got listOutput
			require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
			assert.Equal(t, tt.total, got.Total)
		})
	}
}

func TestList_Errors(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.run("list", "--filter", "wheels=4"))
	assert.Error(t, h.run("list", "--filter", "brand"))
	assert.Error(t, h.run("list", "--sort", "actions"))
	assert.Error(t, h.run("list", "--where", "price <"))
}

func TestList_EmptyCollection(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("list", "--filter", "brand=zeppelin"))
	assert.Equal(t, "No cars found\n", h.stdout.String())
}

func TestList_LocalConfigPageSize(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.workDir, ".carshoprc.yaml"), []byte("pageSize: 3\n"), 0o600))

	require.NoError(t, h.run("list"))
	assert.Contains(t, h.stdout.String(), "Page 1 of 2 (4 cars)")

	require.NoError(t, h.run("list", "--page-size", "10"))
	assert.Contains(t, h.stdout.String(), "Page 1 of 1 (4 cars)")
}

func TestAdd_Flags(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(append([]string{"add"}, saab...)...))

	assert.Equal(t, collection.MsgAdded+"\nID: 5\n", h.stdout.String())
	cars := h.srv.Cars()
	require.Len(t, cars, 5)
	assert.Equal(t, "Saab", cars[4].Brand)
	assert.EqualValues(t, "1991", cars[4].ModelYear)
}

func TestAdd_JSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(append([]string{"add", "--json"}, saab...)...))

	var got writeOutput
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, "created", got.Status)
	assert.Equal(t, "5", got.ID)
	require.NotNil(t, got.Car)
	assert.Equal(t, "900", got.Car.Model)
	assert.Empty(t, got.Warning)
}

func TestAdd_MissingFieldsNeverReachServer(t *testing.T) {
	h := newHarness(t)
	err := h.run("add", "--brand", "Saab", "--year", "1991")

	var re *form.RequiredError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"model", "color", "fuel", "price"}, re.Fields)
	assert.Zero(t, h.srv.Requests())

	msg := FormatError(err)
	assert.Contains(t, msg, "missing required fields: model, color, fuel, price")
	assert.Contains(t, msg, "--model --color --fuel --price")
}

func TestAdd_Prompt(t *testing.T) {
	h := newHarness(t)
	h.prompt = func(_ context.Context, title string, initial car.Draft) (car.Draft, error) {
		assert.Equal(t, "Add car", title)
		assert.Equal(t, car.Draft{}, initial)
		return car.Draft{Brand: "Saab", Model: "9-3", Color: "Grey", Fuel: "Diesel", ModelYear: "2008", Price: "3000"}, nil
	}
	require.NoError(t, h.run("add"))
	assert.Contains(t, h.stdout.String(), collection.MsgAdded)
	assert.Len(t, h.srv.Cars(), 5)
}

func TestAdd_PromptAborted(t *testing.T) {
	h := newHarness(t)
	h.prompt = func(context.Context, string, car.Draft) (car.Draft, error) {
		return car.Draft{}, errAborted
	}
	require.NoError(t, h.run("add"))
	assert.Equal(t, "Cancelled\n", h.stdout.String())
	assert.Zero(t, h.srv.Requests())
}

func TestAdd_ServerRejects(t *testing.T) {
	h := newHarness(t)
	h.srv.FailNext(http.MethodPost, http.StatusInternalServerError)

	err := h.run(append([]string{"add"}, saab...)...)
	require.Error(t, err)
	assert.False(t, collection.IsCommitted(err))
	assert.Len(t, h.srv.Cars(), 4)
}

func TestAdd_ReloadFailureWarns(t *testing.T) {
	h := newHarness(t)
	h.srv.FailNext(http.MethodGet, http.StatusInternalServerError)

	require.NoError(t, h.run(append([]string{"add"}, saab...)...))
	assert.Contains(t, h.stdout.String(), collection.MsgAdded)
	assert.Contains(t, h.stderr.String(), "Warning: "+collection.MsgFetchFailed)
	assert.Len(t, h.srv.Cars(), 5)
}

func TestEdit_Flags(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("edit", "1", "--price", "61000"))

	assert.Contains(t, h.stdout.String(), collection.MsgUpdated)
	got := h.srv.Cars()[0]
	assert.EqualValues(t, "61000", got.Price)
	assert.Equal(t, "Mustang", got.Model)
}

func TestEdit_PromptPrefilled(t *testing.T) {
	h := newHarness(t)
	h.prompt = func(_ context.Context, title string, initial car.Draft) (car.Draft, error) {
		assert.Equal(t, "Edit car 2", title)
		assert.Equal(t, "Leaf", initial.Model)
		initial.Color = "Green"
		return initial, nil
	}
	require.NoError(t, h.run("edit", "2"))
	assert.Equal(t, "Green", h.srv.Cars()[1].Color)
}

func TestEdit_NotFound(t *testing.T) {
	h := newHarness(t)
	err := h.run("edit", "99", "--price", "1")
	require.ErrorIs(t, err, errCarNotFound)
	assert.Contains(t, FormatError(err), "carshop list")
}

func TestEdit_RequiresID(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.run("edit"))
}

func TestDelete_Confirmed(t *testing.T) {
	h := newHarness(t)
	h.confirm = func(title string) collection.Confirmer {
		assert.Equal(t, "Delete Nissan Leaf (id 2)?", title)
		return collection.Answer(true)
	}
	require.NoError(t, h.run("delete", "2"))
	assert.Equal(t, collection.MsgDeleted+"\n", h.stdout.String())
	assert.Len(t, h.srv.Cars(), 3)
}

func TestDelete_Declined(t *testing.T) {
	h := newHarness(t)
	h.confirm = func(string) collection.Confirmer { return collection.Answer(false) }

	require.NoError(t, h.run("delete", "2"))
	assert.Equal(t, "Cancelled\n", h.stdout.String())
	assert.Len(t, h.srv.Cars(), 4)
	// only the lookup reload
	assert.EqualValues(t, 1, h.srv.Requests())
}

func TestDelete_ForceJSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("delete", "3", "--force", "--json"))

	var got writeOutput
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, writeOutput{Status: "deleted", ID: "3"}, got)
	assert.Len(t, h.srv.Cars(), 3)
}

func TestDelete_NotFound(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.run("delete", "42"), errCarNotFound)

	err := h.run("delete", "42", "--force")
	require.Error(t, err)
	assert.Contains(t, FormatError(err), "car not found")
}

func TestConfig_JSON(t *testing.T) {
	h := newHarness(t)
	h.env["CARSHOP_PAGE_SIZE"] = "25"
	require.NoError(t, h.run("config", "--json", "--timeout", "5s"))

	var got struct {
		Config  map[string]any    `json:"config"`
		Sources map[string]string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, h.url, got.Config["baseUrl"])
	assert.Equal(t, "5s", got.Config["timeout"])
	assert.EqualValues(t, 25, got.Config["pageSize"])
	assert.Equal(t, "env", got.Sources["baseUrl"])
	assert.Equal(t, "flag", got.Sources["timeout"])
	assert.Equal(t, "default", got.Sources["logLevel"])
}

func TestConfig_Table(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("config"))
	out := h.stdout.String()
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "baseUrl")
	assert.Contains(t, out, "Local config:  (none)")
}

func TestConfig_Invalid(t *testing.T) {
	h := newHarness(t)
	h.env["CARSHOP_BASE_URL"] = "ftp://example.com"
	err := h.run("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestVersion_JSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("version", "--json"))
	var got VersionOutput
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.NotEmpty(t, got.Version)
	assert.NotEmpty(t, got.Go)
}

func TestUnreachableService(t *testing.T) {
	h := newHarness(t)
	h.env["CARSHOP_BASE_URL"] = "http://127.0.0.1:1"
	err := h.run("list", "--timeout", "2s")
	require.Error(t, err)
	assert.Contains(t, FormatError(err), "Error: cannot reach")
}

func TestRun_ExitCodes(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, Run(context.Background(), []string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "carshop ")

	stdout.Reset()
	assert.Equal(t, 1, Run(context.Background(), []string{"edit"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Error:")
}

func TestFormatError_Fallback(t *testing.T) {
	assert.Equal(t, "Error: boom", FormatError(errors.New("boom")))
}
