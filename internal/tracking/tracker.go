// Package tracking follows faces across frames so that each face gets its own
// label smoother.
package tracking

import (
	"cmp"
	"fmt"
	"image"
	"slices"

	"github.com/google/uuid"

	"github.com/kozaktomas/emotion-recognizer/internal/constants"
	"github.com/kozaktomas/emotion-recognizer/internal/smoother"
)

// Options configures a Tracker. Zero values take the package defaults.
type Options struct {
	Window       int     // smoothing window per track
	IoUThreshold float64 // minimum overlap to continue a track
	MaxMissed    int     // frames a track may go unseen before it is dropped

	// Global feeds every face into one shared smoother, ignoring identity.
	Global bool
}

// Detection is one face found in a frame. An empty Label marks a face whose
// classification failed: it keeps its track alive without voting.
type Detection struct {
	Box   image.Rectangle
	Label string
}

// Assignment reports the track a detection was attributed to.
type Assignment struct {
	TrackID    uuid.UUID
	Box        image.Rectangle
	Label      string // raw label of this frame
	Stabilized string // majority label of the track, empty while unavailable
	New        bool   // track was created by this detection
}

type track struct {
	id       uuid.UUID
	box      image.Rectangle
	missed   int
	smoother *smoother.Smoother[string]
}

// Tracker associates detections of consecutive frames by greedy IoU matching.
// It is not safe for concurrent use.
type Tracker struct {
	opts   Options
	tracks []*track
	global *track
}

// New validates opts and creates an empty tracker.
func New(opts Options) (*Tracker, error) {
	if opts.Window == 0 {
		opts.Window = constants.DefaultWindowSize
	}
	if opts.IoUThreshold == 0 {
		opts.IoUThreshold = constants.DefaultIoUThreshold
	}
	if opts.MaxMissed == 0 {
		opts.MaxMissed = constants.DefaultMaxMissedFrames
	}
	if opts.IoUThreshold < 0 || opts.IoUThreshold > 1 {
		return nil, fmt.Errorf("%w: IoU threshold %v outside [0,1]", smoother.ErrInvalidConfiguration, opts.IoUThreshold)
	}
	if opts.MaxMissed < 0 {
		return nil, fmt.Errorf("%w: max missed frames %d", smoother.ErrInvalidConfiguration, opts.MaxMissed)
	}

	t := &Tracker{opts: opts}
	if opts.Global {
		tr, err := t.newTrack(image.Rectangle{})
		if err != nil {
			return nil, err
		}
		t.global = tr
	} else if _, err := smoother.New[string](opts.Window); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) newTrack(box image.Rectangle) (*track, error) {
	s, err := smoother.New[string](t.opts.Window)
	if err != nil {
		return nil, err
	}
	return &track{id: uuid.New(), box: box, smoother: s}, nil
}

// Update consumes the detections of one frame and returns one Assignment per
// detection, in input order. Tracks unmatched for more than MaxMissed frames
// are dropped together with their smoothing window.
func (t *Tracker) Update(frame []Detection) []Assignment {
	out := make([]Assignment, len(frame))

	if t.global != nil {
		for i, d := range frame {
			out[i] = t.observe(t.global, d, false)
		}
		return out
	}

	trackFor := t.match(frame)
	matched := make(map[*track]bool, len(trackFor))
	for _, tr := range trackFor {
		matched[tr] = true
	}

	t.tracks = slices.DeleteFunc(t.tracks, func(tr *track) bool {
		if matched[tr] {
			tr.missed = 0
			return false
		}
		tr.missed++
		return tr.missed > t.opts.MaxMissed
	})

	for i, d := range frame {
		tr, isNew := trackFor[i], false
		if tr == nil {
			// The window was validated in New.
			tr, _ = t.newTrack(d.Box)
			t.tracks = append(t.tracks, tr)
			isNew = true
		}
		out[i] = t.observe(tr, d, isNew)
	}

	return out
}

// match pairs detections with existing tracks, best overlap first.
func (t *Tracker) match(frame []Detection) map[int]*track {
	type pair struct {
		det, trk int
		iou      float64
	}
	var pairs []pair
	for di, d := range frame {
		for ti, tr := range t.tracks {
			if iou := IoU(d.Box, tr.box); iou >= t.opts.IoUThreshold && iou > 0 {
				pairs = append(pairs, pair{di, ti, iou})
			}
		}
	}
	slices.SortStableFunc(pairs, func(a, b pair) int {
		return cmp.Compare(b.iou, a.iou)
	})

	trackFor := make(map[int]*track, len(frame))
	used := make(map[int]bool, len(t.tracks))
	for _, p := range pairs {
		if trackFor[p.det] != nil || used[p.trk] {
			continue
		}
		trackFor[p.det] = t.tracks[p.trk]
		used[p.trk] = true
	}
	return trackFor
}

func (t *Tracker) observe(tr *track, d Detection, isNew bool) Assignment {
	tr.box = d.Box

	a := Assignment{TrackID: tr.id, Box: d.Box, Label: d.Label, New: isNew}
	if d.Label != "" {
		a.Stabilized = tr.smoother.Observe(d.Label)
	} else if cur, err := tr.smoother.Current(); err == nil {
		a.Stabilized = cur
	}
	return a
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	if t.global != nil {
		return 1
	}
	return len(t.tracks)
}

// Reset forgets all tracks. In global mode the shared window is emptied.
func (t *Tracker) Reset() {
	if t.global != nil {
		t.global.smoother.Reset()
		return
	}
	t.tracks = nil
}
