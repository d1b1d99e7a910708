//go:build profiling
// +build profiling

// Command profile drives a progressio Reader over a generated payload while
// collecting CPU, fgprof, or trace profiles.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/felixge/fgprof"
	"github.com/grafana/pyroscope-go"

	"github.com/meigma/progressio"
)

type profileKind string

const (
	profileCPU     profileKind = "cpu"
	profileFG      profileKind = "fgprof"
	profileTrace   profileKind = "trace"
	profileNone    profileKind = "none"
	defaultPayload             = "tmp/profiledata.txt"
)

// Read modes exercised per iteration.
const (
	modeLines  = "lines"
	modeIter   = "iter"
	modeBytes  = "bytes"
	modeChunks = "chunks"
)

func main() {
	var (
		payload  = flag.String("payload", defaultPayload, "payload file to read (generated if missing)")
		size     = flag.String("size", "64MiB", "payload size when generating")
		regen    = flag.Bool("regen", false, "regenerate the payload even if it exists")
		mode     = flag.String("mode", modeLines, "mode: lines, iter, bytes, or chunks")
		chunk    = flag.Int("chunk", 32*1024, "chunk size for chunks mode")
		buffered = flag.Bool("buffered", true, "wrap the file in a buffered stream")
		profile  = flag.String("profile", "cpu", "profile type: cpu, fgprof, trace, none")
		outDir   = flag.String("out", "profiles", "output directory for profiles")
		label    = flag.String("label", "", "label suffix for profile files")
		repeat   = flag.Int("repeat", 1, "number of iterations")
		logLevel = flag.String("log-level", "", "log level: debug, info, warn, error")
		timeout  = flag.Duration("timeout", 15*time.Minute, "overall timeout")
		pyroAddr = flag.String("pyroscope", "", "Pyroscope server URL (enables streaming, disables local profiles)")
	)
	flag.Parse()

	runID := time.Now().UTC().Format("20060102T150405Z")

	modeValue := strings.ToLower(*mode)
	switch modeValue {
	case modeLines, modeIter, modeBytes, modeChunks:
	default:
		log.Fatalf("invalid mode %q (expected %s, %s, %s, or %s)", *mode, modeLines, modeIter, modeBytes, modeChunks)
	}

	kind := profileKind(strings.ToLower(*profile))
	if !isValidProfile(kind) {
		log.Fatalf("invalid profile %q (expected cpu, fgprof, trace, none)", *profile)
	}
	if *repeat < 1 {
		log.Fatalf("repeat must be >= 1")
	}

	payloadSize, err := humanize.ParseBytes(*size)
	if err != nil {
		log.Fatalf("parse size: %v", err)
	}
	if err := ensurePayload(*payload, int64(payloadSize), *regen); err != nil { //nolint:gosec // G115: size fits
		log.Fatalf("prepare payload: %v", err)
	}

	var logger *slog.Logger
	if *logLevel != "" {
		level, err := parseLogLevel(*logLevel)
		if err != nil {
			log.Fatalf("parse log level: %v", err)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	// When Pyroscope is enabled, stream profiles instead of writing locally
	var pyroProfiler *pyroscope.Profiler
	if *pyroAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName:   "progressio-profile",
			ServerAddress:     *pyroAddr,
			BasicAuthUser:     os.Getenv("PYROSCOPE_BASIC_AUTH_USER"),
			BasicAuthPassword: os.Getenv("PYROSCOPE_BASIC_AUTH_PASSWORD"),
			// Runs are short
			UploadRate: 5 * time.Second,
			Logger:     pyroscope.StandardLogger,
			Tags: map[string]string{
				"mode":     modeValue,
				"buffered": fmt.Sprint(*buffered),
				"git_sha":  os.Getenv("GITHUB_SHA"),
				"run_id":   runID,
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("start pyroscope: %v", err)
		}
		pyroProfiler = profiler
		log.Printf("streaming profiles to %s", *pyroAddr)
	}

	labelParts := []string{modeValue}
	if *label != "" {
		labelParts = append(labelParts, sanitizeLabel(*label))
	}
	labelParts = append(labelParts, runID)
	labelValue := strings.Join(labelParts, "_")

	var stopProfile func() error
	if pyroProfiler == nil {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatalf("create profile output dir: %v", err)
		}
		stopProfile, err = startProfile(kind, *outDir, labelValue)
		if err != nil {
			log.Fatalf("start profile: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run := runConfig{
		path:     *payload,
		mode:     modeValue,
		chunk:    *chunk,
		buffered: *buffered,
		logger:   logger,
	}
	for i := range *repeat {
		if *repeat > 1 {
			log.Printf("iteration %d/%d", i+1, *repeat)
		}
		start := time.Now()
		res, err := run.once(ctx)
		if err != nil {
			log.Fatalf("%s: %v", modeValue, err)
		}
		elapsed := time.Since(start)
		log.Printf("%s complete: %s read, %d units, %d callbacks in %s (%s/s)",
			modeValue, humanize.IBytes(uint64(res.bytes)), res.units, res.callbacks, elapsed, //nolint:gosec // G115: non-negative
			humanize.IBytes(uint64(float64(res.bytes)/elapsed.Seconds())))
	}

	// Stop profiling - either Pyroscope or local
	if pyroProfiler != nil {
		if err := pyroProfiler.Stop(); err != nil {
			log.Fatalf("stop pyroscope: %v", err)
		}
		log.Printf("pyroscope profiling stopped")
		return
	}
	if err := stopProfile(); err != nil {
		log.Fatalf("stop profile: %v", err)
	}
	if err := writeLookupProfile("heap", *outDir, labelValue); err != nil {
		log.Fatalf("write heap profile: %v", err)
	}
	if err := writeLookupProfile("allocs", *outDir, labelValue); err != nil {
		log.Fatalf("write allocs profile: %v", err)
	}
}

// runConfig describes one pass over the payload.
type runConfig struct {
	path     string
	mode     string
	chunk    int
	buffered bool
	logger   *slog.Logger
}

type runResult struct {
	bytes     int64
	units     int
	callbacks int
}

func (c runConfig) once(ctx context.Context) (runResult, error) {
	var res runResult

	f, err := os.Open(c.path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	var stream progressio.Stream
	if c.buffered {
		stream = progressio.NewStream(f)
	} else {
		stream = unbuffered{f}
	}

	var opts []progressio.Option
	if c.logger != nil {
		opts = append(opts, progressio.WithLogger(c.logger))
	}
	r := progressio.New(stream, func(p progressio.Progress) error {
		res.callbacks++
		res.bytes = p.Position
		// Cancellation surfaces through the callback.
		return ctx.Err()
	}, opts...)

	switch c.mode {
	case modeLines:
		err = r.Each(func(string) error {
			res.units++
			return nil
		})
	case modeIter:
		it := r.EachLineIter()
		for range it.All() {
			res.units++
		}
		err = it.Err()
	case modeBytes:
		err = r.EachByte(func(byte) error {
			res.units++
			return nil
		})
	case modeChunks:
		for {
			var b []byte
			b, err = r.ReadN(c.chunk)
			if err != nil || len(b) == 0 {
				break
			}
			res.units++
		}
	}
	return res, err
}

// unbuffered adapts a file to progressio.Stream with one syscall per byte,
// for comparison against the buffered stream.
type unbuffered struct {
	*os.File
}

func (u unbuffered) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(u.File, b[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, err
	}
	return b[0], nil
}

func (u unbuffered) UnreadByte() error {
	_, err := u.Seek(-1, io.SeekCurrent)
	return err
}

func (u unbuffered) ReadRune() (rune, int, error) {
	return 0, 0, errors.New("unbuffered: ReadRune not supported")
}

func (u unbuffered) UnreadRune() error {
	return errors.New("unbuffered: UnreadRune not supported")
}

// ensurePayload writes size bytes of random text lines to path unless a
// file is already there.
func ensurePayload(path string, size int64, regen bool) error {
	if _, err := os.Stat(path); err == nil && !regen {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 "
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // G404: not security sensitive
	var written int64
	for written < size {
		n := min(int64(rng.Intn(120)), size-written-1)
		for range n {
			_ = w.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		_ = w.WriteByte('\n')
		written += n + 1
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	log.Printf("generated payload %s (%s)", path, humanize.IBytes(uint64(size))) //nolint:gosec // G115: non-negative
	return f.Close()
}

func isValidProfile(kind profileKind) bool {
	switch kind {
	case profileCPU, profileFG, profileTrace, profileNone:
		return true
	default:
		return false
	}
}

func startProfile(kind profileKind, outDir, label string) (func() error, error) {
	if kind == profileNone {
		return func() error { return nil }, nil
	}

	name := string(kind) + "_" + label + ".pprof"
	if kind == profileTrace {
		name = "trace_" + label + ".out"
	}
	f, err := os.Create(filepath.Join(outDir, name))
	if err != nil {
		return nil, err
	}

	switch kind {
	case profileCPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			pprof.StopCPUProfile()
			return f.Close()
		}, nil
	case profileFG:
		stop := fgprof.Start(f, fgprof.FormatPprof)
		return func() error {
			return errors.Join(stop(), f.Close())
		}, nil
	case profileTrace:
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			trace.Stop()
			return f.Close()
		}, nil
	default:
		_ = f.Close()
		return nil, fmt.Errorf("unknown profile type: %s", kind)
	}
}

// writeLookupProfile writes the named runtime profile, e.g. heap or allocs.
func writeLookupProfile(name, outDir, label string) error {
	f, err := os.Create(filepath.Join(outDir, name+"_"+label+".pprof"))
	if err != nil {
		return err
	}
	defer f.Close()
	if name == "heap" {
		runtime.GC()
	}
	return pprof.Lookup(name).WriteTo(f, 0)
}

func sanitizeLabel(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, value)
}

func parseLogLevel(value string) (slog.Leveler, error) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unknown level %q", value)
	}
}
