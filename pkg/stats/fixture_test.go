package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ja7ad/scout/pkg/system/cgroup"
	"github.com/stretchr/testify/require"
)

const testGroup = "process"

// fixture is a throwaway cgroup/proc/sysfs tree.
type fixture struct {
	t    *testing.T
	base string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, base: t.TempDir()}
}

func (f *fixture) path(controller string) cgroup.Path {
	return cgroup.New(filepath.Join(f.base, "cgroup"), controller, testGroup)
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) remove(path string) {
	f.t.Helper()
	require.NoError(f.t, os.Remove(path))
}

func (f *fixture) statPath() string { return filepath.Join(f.base, "proc", "stat") }

func (f *fixture) sysfs() string { return filepath.Join(f.base, "sys") }

func (f *fixture) netFile(iface, name string) string {
	return filepath.Join(f.sysfs(), "class", "net", iface, "statistics", name)
}
