package episode

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"agentenv/pkg/logx"
)

// FileEpisode stores each step as its own file named step_N with a
// per-encoding extension. File numbers are one-based and contiguous; a gap
// means the directory was tampered with and loading fails.
type FileEpisode struct {
	mu       sync.Mutex
	dir      string
	encoding Encoding
	count    int
	logger   *logx.Logger
}

var stepFileRe = regexp.MustCompile(`^step_(\d+)\.(json|cbor)$`)

// NewFileEpisode creates an empty file-backed episode in dir, creating the
// directory if needed. Existing step files in dir are an error; use
// LoadFileEpisode to resume one.
func NewFileEpisode(dir string, enc Encoding) (*FileEpisode, error) {
	if !enc.Valid() {
		return nil, fmt.Errorf("unsupported step encoding %q", enc)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create episode dir: %w", err)
	}

	indices, err := scanStepFiles(dir, enc)
	if err != nil {
		return nil, err
	}
	if len(indices) > 0 {
		return nil, fmt.Errorf("episode dir %s already holds %d step files", dir, len(indices))
	}

	return &FileEpisode{
		dir:      dir,
		encoding: enc,
		logger:   logx.NewLogger("episode"),
	}, nil
}

// LoadFileEpisode opens an existing file-backed episode, verifying that the
// step files form a contiguous one-based sequence.
func LoadFileEpisode(dir string, enc Encoding) (*FileEpisode, error) {
	if !enc.Valid() {
		return nil, fmt.Errorf("unsupported step encoding %q", enc)
	}
	indices, err := scanStepFiles(dir, enc)
	if err != nil {
		return nil, err
	}
	for pos, n := range indices {
		if n != pos+1 {
			return nil, fmt.Errorf("episode dir %s is corrupt: missing step file %d", dir, pos+1)
		}
	}

	return &FileEpisode{
		dir:      dir,
		encoding: enc,
		count:    len(indices),
		logger:   logx.NewLogger("episode"),
	}, nil
}

// scanStepFiles returns the sorted step numbers present in dir for the
// encoding. Files of other encodings or names are ignored.
func scanStepFiles(dir string, enc Encoding) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read episode dir: %w", err)
	}

	var indices []int
	for _, entry := range entries {
		m := stepFileRe.FindStringSubmatch(entry.Name())
		if m == nil || "."+m[2] != enc.Ext() {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad step file name %q", entry.Name())
		}
		indices = append(indices, n)
	}
	// ReadDir sorts lexically; step_10 sorts before step_2. Re-sort by number.
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j] < indices[j-1]; j-- {
			indices[j], indices[j-1] = indices[j-1], indices[j]
		}
	}
	return indices, nil
}

// Dir returns the episode directory.
func (f *FileEpisode) Dir() string { return f.dir }

// Encoding returns the step file encoding.
func (f *FileEpisode) Encoding() Encoding { return f.encoding }

// stepPath returns the file for the zero-based step index i.
func (f *FileEpisode) stepPath(i int) string {
	return filepath.Join(f.dir, fmt.Sprintf("step_%d%s", i+1, f.encoding.Ext()))
}

func (f *FileEpisode) readStep(i int) (Step, error) {
	data, err := os.ReadFile(f.stepPath(i))
	if err != nil {
		return Step{}, fmt.Errorf("read step %d: %w", i, err)
	}
	return UnmarshalStep(data, f.encoding)
}

func (f *FileEpisode) writeStep(i int, s Step) error {
	data, err := MarshalStep(s, f.encoding)
	if err != nil {
		return fmt.Errorf("encode step %d: %w", i, err)
	}
	if err := os.WriteFile(f.stepPath(i), data, 0o644); err != nil {
		return fmt.Errorf("write step %d: %w", i, err)
	}
	return nil
}

func (f *FileEpisode) NumSteps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *FileEpisode) Get(i int) (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= f.count {
		return Step{}, fmt.Errorf("get step %d of %d: %w", i, f.count, ErrIndexOutOfRange)
	}
	return f.readStep(i)
}

func (f *FileEpisode) Set(i int, s Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= f.count {
		return fmt.Errorf("set step %d of %d: %w", i, f.count, ErrIndexOutOfRange)
	}
	return f.writeStep(i, s)
}

func (f *FileEpisode) Push(s Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.writeStep(f.count, s); err != nil {
		return err
	}
	f.count++
	return nil
}

// Insert places a step at index i. Every file from i onward is rewritten one
// slot up so the numbering stays contiguous.
func (f *FileEpisode) Insert(i int, s Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i > f.count {
		return fmt.Errorf("insert step at %d of %d: %w", i, f.count, ErrIndexOutOfRange)
	}

	// Read the tail before touching any file so a read error aborts cleanly.
	tail := make([]Step, 0, f.count-i)
	for j := i; j < f.count; j++ {
		step, err := f.readStep(j)
		if err != nil {
			return err
		}
		tail = append(tail, step)
	}

	if err := f.writeStep(i, s); err != nil {
		return err
	}
	for off, step := range tail {
		if err := f.writeStep(i+1+off, step); err != nil {
			return err
		}
	}
	f.count++
	f.logger.Debug("insert at %d rewrote %d step files", i, len(tail)+1)
	return nil
}

func (f *FileEpisode) Pop() (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.count == 0 {
		return Step{}, ErrEmptyEpisode
	}
	last, err := f.readStep(f.count - 1)
	if err != nil {
		return Step{}, err
	}
	if err := os.Remove(f.stepPath(f.count - 1)); err != nil {
		return Step{}, fmt.Errorf("remove step %d: %w", f.count-1, err)
	}
	f.count--
	return last, nil
}

// Clear deletes the episode's step files. Unrelated files in the directory
// are kept.
func (f *FileEpisode) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := 0; i < f.count; i++ {
		if err := os.Remove(f.stepPath(i)); err != nil {
			return fmt.Errorf("remove step %d: %w", i, err)
		}
	}
	f.count = 0
	return nil
}

func (f *FileEpisode) TotalReward() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total float64
	for i := 0; i < f.count; i++ {
		step, err := f.readStep(i)
		if err != nil {
			return 0, err
		}
		total += step.Reward
	}
	return total, nil
}

func (f *FileEpisode) IterSteps() *StepIter {
	return NewStepIter(f)
}
