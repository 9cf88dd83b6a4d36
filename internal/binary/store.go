package binary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"golang.org/x/sync/singleflight"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/config"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/descriptor"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

// Config holds configuration for the binary store
type Config struct {
	// Root is the cache directory (default: DefaultRoot())
	Root string
	// BaseURL is the release download base (default: descriptor.DefaultBaseURL)
	BaseURL string
	// Retries is the number of download retries after the first attempt
	Retries int
	// Checksums pins archive SHA-256 digests by asset name
	Checksums map[string]string
	// Keyring enables detached signature verification when non-empty
	Keyring openpgp.EntityList
	// HTTPClient overrides the download client
	HTTPClient *http.Client
	// LockPoll is how often a busy provisioning lock is retried
	LockPoll time.Duration

	Logger   config.Logger
	OnState  StateFunc
	Progress ProgressFunc
}

// Store provisions and caches curl-impersonate binaries.
type Store struct {
	root       string
	baseURL    string
	lockPoll   time.Duration
	downloader *Downloader
	extractor  *Extractor
	verifier   *Verifier
	logger     config.Logger
	onState    StateFunc
	progress   ProgressFunc

	group singleflight.Group

	mu    sync.RWMutex
	ready map[string]*Record
}

// NewStore creates a new binary store
func NewStore(cfg Config) (*Store, error) {
	root := cfg.Root
	if root == "" {
		root = DefaultRoot()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve cache root: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = descriptor.DefaultBaseURL
	}

	return &Store{
		root:       abs,
		baseURL:    baseURL,
		lockPoll:   cfg.LockPoll,
		downloader: NewDownloader(cfg.Retries, cfg.HTTPClient),
		extractor:  NewExtractor(),
		verifier:   NewVerifier(cfg.Checksums, cfg.Keyring),
		logger:     config.OrNop(cfg.Logger),
		onState:    cfg.OnState,
		progress:   cfg.Progress,
		ready:      make(map[string]*Record),
	}, nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// Ensure returns a Ready binary for r, provisioning it if needed.
//
// Concurrent calls for the same key share one provisioning run; the run uses
// the context of the call that started it, and every caller stops waiting
// when its own context is done. If the run was abandoned because its starter
// went away, a live caller takes over.
func (s *Store) Ensure(ctx context.Context, r *descriptor.Resolved, opts EnsureOptions) (*Record, error) {
	if r == nil {
		return nil, fmt.Errorf("resolved descriptor is required")
	}

	if !opts.Force {
		if rec := s.memo(r.Key); rec != nil {
			return rec, nil
		}
	}

	flight := r.Key
	if opts.Force {
		flight += "#force"
	}

	for {
		ch := s.group.DoChan(flight, func() (interface{}, error) {
			return s.ensure(ctx, r, opts.Force)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				if isContextErr(res.Err) && ctx.Err() == nil {
					continue
				}
				return nil, res.Err
			}
			return res.Val.(*Record), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// BinaryPath returns where the binary for r lives once provisioned.
func (s *Store) BinaryPath(r *descriptor.Resolved) string {
	return filepath.Join(s.root, r.Key, r.Variant.Binary)
}

// Lookup returns the Ready record for key without provisioning.
func (s *Store) Lookup(key string) (*Record, bool) {
	if rec := s.memo(key); rec != nil {
		return rec, true
	}
	rec, err := s.check(key)
	if err != nil {
		return nil, false
	}
	s.remember(rec)
	return rec, true
}

// Clear removes the cached binary for key.
func (s *Store) Clear(ctx context.Context, key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid cache key %q", key)
	}

	lock, err := AcquireLock(ctx, s.lockPath(key), s.lockPoll)
	if err != nil {
		return err
	}
	defer lock.Release()

	s.forget(key)
	if err := os.RemoveAll(filepath.Join(s.root, key)); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	s.logger.Info("cleared cached binary", "key", key)
	return nil
}

// ClearAll removes every cached binary and abandoned staging directory.
func (s *Store) ClearAll(ctx context.Context) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache root: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		switch {
		case !entry.IsDir():
			continue
		case strings.HasPrefix(name, ".staging-"):
			os.RemoveAll(filepath.Join(s.root, name))
		default:
			if err := s.Clear(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) ensure(ctx context.Context, r *descriptor.Resolved, force bool) (*Record, error) {
	if !force {
		rec, err := s.check(r.Key)
		if err == nil {
			s.remember(rec)
			return rec, nil
		}
		s.reportStale(r.Key, err)
	}

	if err := os.MkdirAll(s.root, 0755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}

	lock, err := AcquireLock(ctx, s.lockPath(r.Key), s.lockPoll)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	// Another process may have finished while we waited.
	if !force {
		if rec, err := s.check(r.Key); err == nil {
			s.remember(rec)
			return rec, nil
		}
	}

	s.forget(r.Key)
	rec, err := s.provision(ctx, r)
	if err != nil {
		s.setState(r.Key, StateAbsent)
		return nil, err
	}
	s.remember(rec)
	return rec, nil
}

// check validates an on-disk key directory.
func (s *Store) check(key string) (*Record, error) {
	rec, err := readRecord(filepath.Join(s.root, key))
	if err != nil {
		return nil, err
	}
	if rec.Key != key {
		return nil, fmt.Errorf("record key %q does not match %q", rec.Key, key)
	}
	info, err := VerifyExecutable(rec.Path)
	if err != nil {
		return nil, err
	}
	if rec.Size > 0 && info.Size() != rec.Size {
		return nil, fmt.Errorf("binary size %d does not match record %d", info.Size(), rec.Size)
	}
	rec.Executable = true
	return rec, nil
}

func (s *Store) reportStale(key string, err error) {
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	s.logger.Warn("cached binary failed verification, provisioning again", "key", key, "error", err)
}

// provision downloads, extracts and verifies into a staging directory and
// renames it into place.
func (s *Store) provision(ctx context.Context, r *descriptor.Resolved) (*Record, error) {
	start := time.Now()
	key := r.Key
	url := r.Variant.URL(s.baseURL)

	staging, err := os.MkdirTemp(s.root, ".staging-"+key+"-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	s.setState(key, StateDownloading)
	s.logger.Info("downloading curl-impersonate", "key", key, "url", url)

	archivePath := filepath.Join(staging, r.Variant.Asset)
	dl, err := s.downloader.Download(ctx, url, archivePath, s.progress)
	if err != nil {
		return nil, err
	}

	var verified []string
	pinned, err := s.verifier.VerifyChecksum(r.Variant.Asset, dl.SHA256)
	if err != nil {
		return nil, &errs.VerificationError{Key: key, Reason: "archive checksum", Err: err}
	}
	if pinned {
		verified = append(verified, VerificationSHA256.String())
	}

	if s.verifier.HasKeyring() {
		sigPath := archivePath + ".sig"
		if _, err := s.downloader.Download(ctx, url+".sig", sigPath, nil); err != nil {
			return nil, err
		}
		if err := s.verifier.VerifySignature(archivePath, sigPath); err != nil {
			return nil, &errs.VerificationError{Key: key, Reason: "archive signature", Err: err}
		}
		os.Remove(sigPath)
		verified = append(verified, VerificationOpenPGP.String())
	}

	s.setState(key, StateExtracting)
	binPath := filepath.Join(staging, r.Variant.Binary)
	if err := s.extractor.ExtractBinary(archivePath, binPath, r.Variant.Binary); err != nil {
		return nil, &errs.VerificationError{Key: key, Reason: "extract", Err: err}
	}
	os.Remove(archivePath)

	s.setState(key, StateVerifying)
	info, err := VerifyExecutable(binPath)
	if err != nil {
		return nil, &errs.VerificationError{Key: key, Reason: "binary check", Err: err}
	}
	binSum, err := calculateSHA256(binPath)
	if err != nil {
		return nil, &errs.VerificationError{Key: key, Reason: "binary digest", Err: err}
	}
	verified = append([]string{VerificationExecutable.String()}, verified...)

	dir := filepath.Join(s.root, key)
	rec := &Record{
		Key:           key,
		Path:          filepath.Join(dir, r.Variant.Binary),
		Release:       r.Variant.Release,
		Asset:         r.Variant.Asset,
		URL:           url,
		ArchiveSHA256: dl.SHA256,
		BinarySHA256:  binSum,
		Size:          info.Size(),
		Executable:    true,
		Verified:      verified,
		Source:        SourceDownload,
		AcquiredAt:    time.Now().UTC(),
	}
	if err := writeRecord(staging, rec); err != nil {
		return nil, err
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("remove previous %s: %w", key, err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return nil, fmt.Errorf("install %s: %w", key, err)
	}

	s.setState(key, StateReady)
	s.logger.Info("curl-impersonate ready",
		"key", key,
		"path", rec.Path,
		"verified", strings.Join(verified, ","),
		"duration", time.Since(start))
	return rec, nil
}

func (s *Store) lockPath(key string) string {
	return filepath.Join(s.root, key+".lock")
}

func (s *Store) memo(key string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready[key]
}

func (s *Store) remember(rec *Record) {
	s.mu.Lock()
	s.ready[rec.Key] = rec
	s.mu.Unlock()
}

func (s *Store) forget(key string) {
	s.mu.Lock()
	delete(s.ready, key)
	s.mu.Unlock()
}

func (s *Store) setState(key string, state State) {
	s.logger.Debug("binary state", "key", key, "state", state.String())
	if s.onState != nil {
		s.onState(key, state)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
