// Package session implements the fingerprint cache: a per-session record of
// which blocks have already been returned, so a follow-up search in the
// same session can skip results the caller has already seen.
//
// Exclusive-lock handling guards a single lock file with syscall.Flock —
// there is no third-party flock wrapper available, so this stays on the
// standard library's syscall package.
package session

import (
	"bufio"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/blocksearch/internal/errors"
	"github.com/standardbeagle/blocksearch/internal/model"
)

const (
	magic      = "PRBSESS1"
	formatVersion uint32 = 1
)

// Fingerprint is the 128-bit identity of a block already emitted, formed
// from two xxhash64 digests of its identity string.
type Fingerprint [16]byte

// Compute hashes file_path \0 start \0 end \0 code into a 128-bit
// fingerprint using two distinct xxhash64 seeds.
func Compute(b model.CodeBlock) Fingerprint {
	var sb strings.Builder
	sb.WriteString(b.FilePath)
	sb.WriteByte(0)
	writeInt(&sb, b.StartLine)
	sb.WriteByte(0)
	writeInt(&sb, b.EndLine)
	sb.WriteByte(0)
	sb.WriteString(b.Code)
	identity := sb.String()

	var fp Fingerprint
	binary.BigEndian.PutUint64(fp[0:8], xxhash.Sum64String(identity))
	binary.BigEndian.PutUint64(fp[8:16], xxhash.Sum64([]byte(identity+"\x00salt")))
	return fp
}

func writeInt(sb *strings.Builder, n int) {
	if n == 0 {
		sb.WriteByte('0')
		return
	}
	if n < 0 {
		sb.WriteByte('-')
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	sb.Write(buf[i:])
}

// Store is a session's fingerprint cache on disk: an exclusively-locked
// file at cacheDir/probe-sessions/<sanitized id>.cache.
type Store struct {
	mu          sync.Mutex
	path        string
	id          string
	creationUTC int64
	seen        map[Fingerprint]bool
	order       []Fingerprint // oldest-first, for compaction
	maxEntries  int
	file        *os.File
	disabled    bool
	warnings    []string
}

// Open resolves a session store for id under cacheDir. An empty id disables
// the cache entirely (Seen always false, Record a no-op). The literal id
// "new" always starts a fresh, empty cache file. Any other id loads the
// existing cache file if present, or starts fresh if absent or corrupt (in
// which case a SessionCacheCorruptError is recorded in warnings and the file
// is rewritten clean).
func Open(cacheDir, id string, maxEntries int, nowUnix int64) (*Store, error) {
	if id == "" {
		return &Store{disabled: true}, nil
	}

	dir := filepath.Join(cacheDir, "probe-sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewIoError("mkdir", dir, err)
	}

	s := &Store{
		path:        filepath.Join(dir, sanitize(id)+".cache"),
		id:          id,
		creationUTC: nowUnix,
		seen:        map[Fingerprint]bool{},
		maxEntries:  maxEntries,
	}

	if id == "new" {
		return s, nil
	}

	if err := s.load(); err != nil {
		if corrupt, ok := err.(*errors.SessionCacheCorruptError); ok {
			s.warnings = append(s.warnings, corrupt.Error())
			s.seen = map[Fingerprint]bool{}
			s.order = nil
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewIoError("open", s.path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	header := make([]byte, len(magic))
	if _, err := readFull(r, header); err != nil {
		return errors.NewSessionCacheCorruptError(s.path, "truncated magic")
	}
	if string(header) != magic {
		return errors.NewSessionCacheCorruptError(s.path, "bad magic")
	}

	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return errors.NewSessionCacheCorruptError(s.path, "truncated version")
	}
	if version != formatVersion {
		return errors.NewSessionCacheCorruptError(s.path, "unsupported version")
	}

	sessionID, err := r.ReadString(0)
	if err != nil {
		return errors.NewSessionCacheCorruptError(s.path, "truncated session id")
	}
	sessionID = strings.TrimSuffix(sessionID, "\x00")
	_ = sessionID

	var creation int64
	if err := binary.Read(r, binary.BigEndian, &creation); err != nil {
		return errors.NewSessionCacheCorruptError(s.path, "truncated creation timestamp")
	}
	s.creationUTC = creation

	for {
		var fp Fingerprint
		n, err := readFull(r, fp[:])
		if n == 0 {
			break
		}
		if err != nil {
			return errors.NewSessionCacheCorruptError(s.path, "truncated fingerprint record")
		}
		s.seen[fp] = true
		s.order = append(s.order, fp)
	}
	return nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Seen reports whether fp was already recorded by a prior call in this
// session. A disabled store always reports false.
func (s *Store) Seen(fp Fingerprint) bool {
	if s.disabled {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[fp]
}

// Record marks fp as seen. It does not write to disk; call Flush once per
// invocation after the result set is finalized.
func (s *Store) Record(fp Fingerprint) {
	if s.disabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[fp] {
		return
	}
	s.seen[fp] = true
	s.order = append(s.order, fp)
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		drop := s.order[0]
		delete(s.seen, drop)
		s.order = s.order[1:]
	}
}

// Warnings returns any recovered corruption messages recorded while
// opening the store.
func (s *Store) Warnings() []string { return s.warnings }

// Flush writes the full fingerprint set back to disk under an exclusive
// lock, so a concurrent invocation against the same session id never
// interleaves writes.
func (s *Store) Flush() error {
	if s.disabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.NewIoError("open", s.path, err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return errors.NewIoError("flock", s.path, err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(magic); err != nil {
		return errors.NewIoError("write", s.path, err)
	}
	if err := binary.Write(w, binary.BigEndian, formatVersion); err != nil {
		return errors.NewIoError("write", s.path, err)
	}
	if _, err := w.WriteString(s.id + "\x00"); err != nil {
		return errors.NewIoError("write", s.path, err)
	}
	if err := binary.Write(w, binary.BigEndian, s.creationUTC); err != nil {
		return errors.NewIoError("write", s.path, err)
	}
	for _, fp := range s.order {
		if _, err := w.Write(fp[:]); err != nil {
			return errors.NewIoError("write", s.path, err)
		}
	}
	return w.Flush()
}

// sanitize replaces path separators in a session id so it can never escape
// the cache directory.
func sanitize(id string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(id)
}
