package main

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"haystack"}, args...))
	return out.String(), err
}

func writeInputs(t *testing.T, count, size int) string {
	t.Helper()
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(42))
	for i := range count {
		data := make([]byte, size)
		rng.Read(data)
		require.NoError(t, os.WriteFile(filepath.Join(dir, string(rune('a'+i))+".bin"), data, 0o644))
	}
	return dir
}

func TestPutGetStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "group")
	in := t.TempDir()
	owl := filepath.Join(in, "owl.jpg")
	cat := filepath.Join(in, "cat.jpg")
	require.NoError(t, os.WriteFile(owl, []byte("hoot hoot"), 0o644))
	require.NoError(t, os.WriteFile(cat, []byte("meow"), 0o644))

	out, err := run(t, "--dir", dir, "put", owl, cat)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], owl+"\t0\t0\t"))
	assert.True(t, strings.HasPrefix(lines[1], cat+"\t0\t1\t"))

	out, err = run(t, "--dir", dir, "get", "0", "1")
	require.NoError(t, err)
	assert.Equal(t, "meow", out)

	target := filepath.Join(t.TempDir(), "owl.out")
	_, err = run(t, "--dir", dir, "get", "-o", target, "0", "0")
	require.NoError(t, err)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hoot hoot", string(got))

	_, err = run(t, "--dir", dir, "get", "0", "2")
	assert.Error(t, err)
	_, err = run(t, "--dir", dir, "get", "zero", "0")
	assert.Error(t, err)

	out, err = run(t, "--dir", dir, "stats", "--shards")
	require.NoError(t, err)
	assert.Contains(t, out, "needles         2")
	assert.Contains(t, out, "data size       13 B")
	assert.Contains(t, out, "SHARD")
}

func TestPutRequiresFiles(t *testing.T) {
	_, err := run(t, "--dir", t.TempDir(), "put")
	assert.Error(t, err)
}

func TestRecoverCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInputs(t, 2, 100)
	_, err := run(t, "--dir", dir, "put", filepath.Join(in, "a.bin"), filepath.Join(in, "b.bin"))
	require.NoError(t, err)

	f, err := os.OpenFile(filepath.Join(dir, "0000000000.index"), os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 8))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := run(t, "--dir", dir, "recover")
	require.NoError(t, err)
	assert.Contains(t, out, "shard 0: trim-index (index 56 -> 48, stack 200 -> 200)")
	assert.Contains(t, out, "inspected 1 shards, repaired 1")

	out, err = run(t, "--dir", dir, "recover")
	require.NoError(t, err)
	assert.Equal(t, "inspected 1 shards, repaired 0\n", out)
}

func TestSmoke(t *testing.T) {
	in := writeInputs(t, 5, 3000)
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "output")

	out, err := run(t, "--dir", dir, "--max-stack-size", "5000", "smoke", "-o", outDir, in)
	require.NoError(t, err, out)
	assert.Contains(t, out, "shard 4: trim-index")
	assert.Contains(t, out, "shard 0: rollback")
	assert.Contains(t, out, "0-0.bin : lost")
	assert.Contains(t, out, "4 ok, 1 lost, 0 mismatched")

	files, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, files, 4)

	_, err = run(t, "--dir", dir, "smoke", in)
	assert.ErrorContains(t, err, "use --clean")

	out, err = run(t, "--dir", dir, "--max-stack-size", "5000", "smoke", "--clean", in)
	require.NoError(t, err)
	assert.Contains(t, out, "4 ok, 1 lost, 0 mismatched")
}

func TestSmokeSingleShard(t *testing.T) {
	in := writeInputs(t, 3, 500)

	out, err := run(t, "--dir", t.TempDir(), "smoke", "--chop", "100", in)
	require.NoError(t, err, out)
	assert.Contains(t, out, "shard 0: trim-index")
	assert.Contains(t, out, "shard 0: rollback")
	assert.Contains(t, out, "2 ok, 1 lost, 0 mismatched")
}

func TestBackupRestore(t *testing.T) {
	in := writeInputs(t, 6, 700)
	src := t.TempDir()
	var files []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files = append(files, filepath.Join(in, name+".bin"))
	}
	_, err := run(t, "--dir", src, "--max-stack-size", "2000", "put", files[0], files[1], files[2], files[3], files[4], files[5])
	require.NoError(t, err)

	bucket := t.TempDir()
	out, err := run(t, "--dir", src, "backup", "--target", "dir://"+bucket, "--compression", "lz4", "--prefix", "daily")
	require.NoError(t, err)
	assert.Contains(t, out, "backed up 3 shards, 6 needles")

	dst := filepath.Join(t.TempDir(), "restored")
	out, err = run(t, "--dir", dst, "restore", "--source", bucket, "--prefix", "daily", "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "restored 3 shards, 6 needles")

	out, err = run(t, "--dir", dst, "get", "2", "1")
	require.NoError(t, err)
	want, err := os.ReadFile(files[5])
	require.NoError(t, err)
	assert.Equal(t, string(want), out)

	_, err = run(t, "--dir", dst, "restore", "--source", bucket, "--prefix", "daily")
	assert.Error(t, err, "restore into a non-empty directory")

	_, err = run(t, "--dir", src, "backup")
	assert.ErrorContains(t, err, "--target is required")
}

func TestMetricsFile(t *testing.T) {
	in := writeInputs(t, 1, 10)
	metrics := filepath.Join(t.TempDir(), "haystack.prom")

	_, err := run(t, "--dir", t.TempDir(), "--metrics-file", metrics, "put", filepath.Join(in, "a.bin"))
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `haystack_operations_total{operation="write",outcome="ok"} 1`)
	assert.Contains(t, string(data), `haystack_bytes_total{operation="write"} 10`)
}

func TestInvalidGlobalFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--max-stack-size", "lots", "stats"},
		{"--log-level", "loud", "stats"},
		{"--log-format", "xml", "stats"},
		{"--durability", "maybe", "stats"},
	} {
		_, err := run(t, append([]string{"--dir", t.TempDir()}, args...)...)
		assert.Error(t, err, args)
	}
}
