package features

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// RotationError reports a failed rotation or archive step. The files on disk
// are left as they were before the failing step so the caller can retry.
type RotationError struct {
	Op   string
	Path string
	Err  error
}

func (e *RotationError) Error() string {
	return fmt.Sprintf("rotation %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RotationError) Unwrap() error {
	return e.Err
}

// Archiver performs rotation for one log file: numbered backups
// ({name}.1.log is the newest) plus an optional zip archive
// ({name}-archive.zip) holding older numbered files.
type Archiver struct {
	mu       sync.Mutex
	fs       afero.Fs
	dir      string
	name     string
	maxCount int
	compress bool
	backupRe *regexp.Regexp
}

// NewArchiver creates an archiver for {dir}/{name}.log keeping at most
// maxCount numbered files.
func NewArchiver(fs afero.Fs, dir, name string, maxCount int, compress bool) *Archiver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if maxCount < 0 {
		maxCount = 0
	}
	return &Archiver{
		fs:       fs,
		dir:      dir,
		name:     name,
		maxCount: maxCount,
		compress: compress,
		backupRe: regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `\.(\d+)\.log$`),
	}
}

// BasePath returns the active log file path.
func (a *Archiver) BasePath() string {
	return filepath.Join(a.dir, a.name+".log")
}

// ArchivePath returns the path of the zip archive.
func (a *Archiver) ArchivePath() string {
	return filepath.Join(a.dir, a.name+"-archive.zip")
}

// MaxCount returns the retention limit.
func (a *Archiver) MaxCount() int {
	return a.maxCount
}

func (a *Archiver) backupName(n int) string {
	return fmt.Sprintf("%s.%d.log", a.name, n)
}

func (a *Archiver) backupPath(n int) string {
	return filepath.Join(a.dir, a.backupName(n))
}

// Backups returns the numbers of the numbered backups outside the archive,
// ascending (newest first).
func (a *Archiver) Backups() ([]int, error) {
	entries, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", a.dir)
	}

	var nums []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := a.parseBackup(e.Name()); ok {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums, nil
}

func (a *Archiver) parseBackup(name string) (int, bool) {
	m := a.backupRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ArchiveMembers lists the entry names in the archive, sorted. A missing
// archive yields an empty list.
func (a *Archiver) ArchiveMembers() ([]string, error) {
	f, err := a.fs.Open(a.ArchivePath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat archive")
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, errors.Wrap(err, "read archive")
	}

	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Rotate rolls the active file over. It reports false with no error when
// there is no active file to rotate. When compression is enabled a failure
// to archive is returned together with rotated=true: the rename already
// happened and the numbered files remain outside for the next attempt.
func (a *Archiver) Rotate() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	base := a.BasePath()
	if _, err := a.fs.Stat(base); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &RotationError{Op: "stat", Path: base, Err: err}
	}

	if err := a.shift(); err != nil {
		return false, err
	}

	if a.maxCount == 0 {
		if err := a.fs.Remove(base); err != nil {
			return false, &RotationError{Op: "remove", Path: base, Err: err}
		}
		return true, nil
	}

	if err := a.fs.Rename(base, a.backupPath(1)); err != nil {
		return false, &RotationError{Op: "rename", Path: base, Err: err}
	}

	if !a.compress {
		return true, nil
	}
	return true, a.archive()
}

// shift moves every backup up by one, highest first, deleting any whose
// new number would exceed maxCount.
func (a *Archiver) shift() error {
	nums, err := a.Backups()
	if err != nil {
		return &RotationError{Op: "list", Path: a.dir, Err: err}
	}

	for i := len(nums) - 1; i >= 0; i-- {
		n := nums[i]
		src := a.backupPath(n)
		if n+1 > a.maxCount {
			if err := a.fs.Remove(src); err != nil && !os.IsNotExist(err) {
				return &RotationError{Op: "remove", Path: src, Err: err}
			}
			continue
		}
		if err := a.fs.Rename(src, a.backupPath(n+1)); err != nil {
			return &RotationError{Op: "rename", Path: src, Err: err}
		}
	}
	return nil
}

func (a *Archiver) archive() error {
	nums, err := a.Backups()
	if err != nil {
		return &RotationError{Op: "list", Path: a.dir, Err: err}
	}
	if len(nums) == 0 {
		return nil
	}

	exists, err := afero.Exists(a.fs, a.ArchivePath())
	if err != nil {
		return &RotationError{Op: "stat", Path: a.ArchivePath(), Err: err}
	}
	if exists {
		return a.merge(nums)
	}
	return a.create(nums)
}

// create writes a fresh archive from the outside backups.
func (a *Archiver) create(nums []int) error {
	files := make([]archiveFile, 0, len(nums))
	for i, n := range nums {
		files = append(files, archiveFile{
			src:  a.backupPath(n),
			name: a.backupName(i + 1),
		})
	}

	if err := a.writeArchive(files); err != nil {
		return err
	}
	return a.removeSources(nums)
}

// merge folds the outside backups into an existing archive. Work happens in
// a scratch directory and a temporary zip; the archive is only replaced by
// a single rename once the new zip is complete.
func (a *Archiver) merge(nums []int) error {
	scratch, err := afero.TempDir(a.fs, a.dir, "."+a.name+"-merge-")
	if err != nil {
		return &RotationError{Op: "tempdir", Path: a.dir, Err: err}
	}
	defer a.fs.RemoveAll(scratch)

	k := len(nums)
	var files []archiveFile

	for i, n := range nums {
		files = append(files, archiveFile{src: a.backupPath(n), name: a.backupName(i + 1)})
	}

	extracted, err := a.extract(scratch)
	if err != nil {
		return err
	}
	for _, member := range extracted {
		n, numbered := a.parseBackup(member.name)
		if !numbered {
			files = append(files, member)
			continue
		}
		if n+k > a.maxCount {
			continue
		}
		files = append(files, archiveFile{src: member.src, name: a.backupName(n + k)})
	}

	if err := a.writeArchive(files); err != nil {
		return err
	}
	return a.removeSources(nums)
}

type archiveFile struct {
	src  string
	name string
}

// extract copies every archive member into dir and returns them in
// archive order.
func (a *Archiver) extract(dir string) ([]archiveFile, error) {
	f, err := a.fs.Open(a.ArchivePath())
	if err != nil {
		return nil, &RotationError{Op: "open", Path: a.ArchivePath(), Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &RotationError{Op: "stat", Path: a.ArchivePath(), Err: err}
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, &RotationError{Op: "read", Path: a.ArchivePath(), Err: err}
	}

	out := make([]archiveFile, 0, len(zr.File))
	for i, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(zf.Name)
		dst := filepath.Join(dir, fmt.Sprintf("%04d-%s", i, name))
		if err := a.extractOne(zf, dst); err != nil {
			return nil, &RotationError{Op: "extract", Path: zf.Name, Err: err}
		}
		out = append(out, archiveFile{src: dst, name: name})
	}
	return out, nil
}

func (a *Archiver) extractOne(zf *zip.File, dst string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if !zf.Modified.IsZero() {
		_ = a.fs.Chtimes(dst, zf.Modified, zf.Modified)
	}
	return nil
}

// writeArchive compresses files into a temporary zip next to the archive
// and renames it into place.
func (a *Archiver) writeArchive(files []archiveFile) error {
	tmp, err := afero.TempFile(a.fs, a.dir, "."+a.name+"-archive-*.tmp")
	if err != nil {
		return &RotationError{Op: "tempfile", Path: a.dir, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = a.fs.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, file := range files {
		if err := a.addToZip(zw, file); err != nil {
			zw.Close()
			tmp.Close()
			return &RotationError{Op: "compress", Path: file.src, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return &RotationError{Op: "compress", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &RotationError{Op: "compress", Path: tmpName, Err: err}
	}

	if err := a.fs.Rename(tmpName, a.ArchivePath()); err != nil {
		return &RotationError{Op: "replace", Path: a.ArchivePath(), Err: err}
	}
	committed = true
	return nil
}

func (a *Archiver) addToZip(zw *zip.Writer, file archiveFile) error {
	src, err := a.fs.Open(file.src)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = file.name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func (a *Archiver) removeSources(nums []int) error {
	var firstErr error
	for _, n := range nums {
		if err := a.fs.Remove(a.backupPath(n)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = &RotationError{Op: "cleanup", Path: a.backupPath(n), Err: err}
		}
	}
	return firstErr
}
