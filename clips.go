package bagdrop

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// defaultFrameDuration applies to frames that declare no duration.
const defaultFrameDuration = 100 * time.Millisecond

// Frame is one cel of a clip sheet.
type Frame struct {
	Image    *ebiten.Image
	Duration time.Duration
}

// Clip is a named run of frames. Looping clips restart after their last
// frame; the others hold it and report finished.
type Clip struct {
	Name   string
	Frames []Frame
	Loop   bool
}

// Duration returns the length of one pass through the clip.
func (c *Clip) Duration() time.Duration {
	var d time.Duration
	for _, f := range c.Frames {
		d += f.Duration
	}
	return d
}

// ClipSheet holds the frames of a packed sprite sheet and the clips tagged
// on it. It is the frame source for SpriteSurface.
type ClipSheet struct {
	Page   *ebiten.Image
	frames []Frame
	clips  map[string]*Clip
}

// NewClipSheet builds a sheet from frames that are already sliced.
func NewClipSheet(frames []Frame) *ClipSheet {
	return &ClipSheet{frames: frames, clips: make(map[string]*Clip)}
}

// NumFrames returns the number of frames on the sheet.
func (s *ClipSheet) NumFrames() int {
	return len(s.frames)
}

// AddClip tags frames [from, to] as a clip. Reversed ranges play backward.
func (s *ClipSheet) AddClip(name string, from, to int, loop bool) error {
	if name == "" {
		return fmt.Errorf("bagdrop: clip name is empty")
	}
	lo, hi := min(from, to), max(from, to)
	if lo < 0 || hi >= len(s.frames) {
		return fmt.Errorf("bagdrop: clip %q frames %d..%d out of range (sheet has %d)", name, from, to, len(s.frames))
	}
	frames := make([]Frame, 0, hi-lo+1)
	if from <= to {
		frames = append(frames, s.frames[from:to+1]...)
	} else {
		for i := from; i >= to; i-- {
			frames = append(frames, s.frames[i])
		}
	}
	s.clips[name] = &Clip{Name: name, Frames: frames, Loop: loop}
	return nil
}

// Clip returns the named clip.
func (s *ClipSheet) Clip(name string) (*Clip, bool) {
	c, ok := s.clips[name]
	if !ok && globalDebug {
		log.Printf("bagdrop: clip %q not found on sheet", name)
	}
	return c, ok
}

// Names returns the clip names in sorted order.
func (s *ClipSheet) Names() []string {
	names := make([]string, 0, len(s.clips))
	for n := range s.clips {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadClipSheet parses a TexturePacker/Aseprite JSON export and slices the
// page image. Frames may be a hash (ordered by name) or an array (ordered as
// listed); clips come from meta.frameTags. A tag without "repeat", or with
// "repeat": "0", loops.
func LoadClipSheet(jsonData []byte, page *ebiten.Image) (*ClipSheet, error) {
	var doc struct {
		Frames json.RawMessage `json:"frames"`
		Meta   struct {
			FrameTags []jsonFrameTag `json:"frameTags"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("bagdrop: failed to parse clip sheet JSON: %w", err)
	}
	if doc.Frames == nil {
		return nil, fmt.Errorf("bagdrop: clip sheet JSON has no \"frames\" key")
	}

	raw, err := parseFrames(doc.Frames)
	if err != nil {
		return nil, err
	}

	sheet := NewClipSheet(make([]Frame, 0, len(raw)))
	sheet.Page = page
	for _, f := range raw {
		if f.Rotated {
			return nil, fmt.Errorf("bagdrop: frame %q is rotated; export without rotation", f.Filename)
		}
		sheet.frames = append(sheet.frames, Frame{
			Image:    subImage(page, f.Frame),
			Duration: frameDuration(f.Duration),
		})
	}

	for _, tag := range doc.Meta.FrameTags {
		from, to := tag.From, tag.To
		if tag.Direction == "reverse" {
			from, to = to, from
		}
		if err := sheet.AddClip(tag.Name, from, to, tag.Repeat == "" || tag.Repeat == "0"); err != nil {
			return nil, err
		}
	}
	return sheet, nil
}

// --- JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Filename string   `json:"filename"`
	Frame    jsonRect `json:"frame"`
	Rotated  bool     `json:"rotated"`
	Duration int      `json:"duration"` // milliseconds
}

type jsonFrameTag struct {
	Name      string `json:"name"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	Direction string `json:"direction"`
	Repeat    string `json:"repeat"`
}

// parseFrames accepts the array format ([{filename, frame...}]) and the hash
// format ({"name": {frame...}}).
func parseFrames(raw json.RawMessage) ([]jsonFrame, error) {
	var list []jsonFrame
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var hash map[string]jsonFrame
	if err := json.Unmarshal(raw, &hash); err != nil {
		return nil, fmt.Errorf("bagdrop: failed to parse clip sheet frames: %w", err)
	}
	names := make([]string, 0, len(hash))
	for n := range hash {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	list = make([]jsonFrame, 0, len(names))
	for _, n := range names {
		f := hash[n]
		f.Filename = n
		list = append(list, f)
	}
	return list, nil
}

// naturalLess orders "bag 2.png" before "bag 10.png".
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := digitPrefix(a), digitPrefix(b)
		if da > 0 && db > 0 {
			na, _ := strconv.Atoi(a[:da])
			nb, _ := strconv.Atoi(b[:db])
			if na != nb {
				return na < nb
			}
			a, b = a[da:], b[db:]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func digitPrefix(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

func frameDuration(ms int) time.Duration {
	if ms <= 0 {
		return defaultFrameDuration
	}
	return time.Duration(ms) * time.Millisecond
}

func subImage(page *ebiten.Image, r jsonRect) *ebiten.Image {
	if page == nil {
		return ensureMagentaImage()
	}
	return page.SubImage(image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)).(*ebiten.Image)
}

// magenta placeholder singleton; drawing is single-threaded.
var magentaImage *ebiten.Image

func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return magentaImage
}

// --- SpriteSurface ---

// SpriteSurface is a Surface that plays ClipSheet clips on a sprite node. It
// implements ClipFinisher and ClipTimer. Call Update from the render loop.
type SpriteSurface struct {
	node    *Node
	sheet   *ClipSheet
	clip    *Clip
	frame   int
	elapsed time.Duration
	playing bool
	done    bool
}

// NewSpriteSurface binds sheet to node.
func NewSpriteSurface(node *Node, sheet *ClipSheet) *SpriteSurface {
	return &SpriteSurface{node: node, sheet: sheet}
}

// Node returns the sprite node the surface draws on.
func (s *SpriteSurface) Node() *Node { return s.node }

// Has reports whether the sheet carries the clip.
func (s *SpriteSurface) Has(clip string) bool {
	_, ok := s.sheet.clips[clip]
	return ok
}

// Play switches to clip from its first frame.
func (s *SpriteSurface) Play(clip string) error {
	c, ok := s.sheet.Clip(clip)
	if !ok {
		return fmt.Errorf("%w: %q", ErrClipNotFound, clip)
	}
	if len(c.Frames) == 0 {
		return fmt.Errorf("%w: %q has no frames", ErrClipNotFound, clip)
	}
	s.clip = c
	s.frame = 0
	s.elapsed = 0
	s.playing = true
	s.done = false
	s.show()
	return nil
}

// Pause stops advancing the current clip, leaving its frame on screen.
func (s *SpriteSurface) Pause() {
	s.playing = false
}

// Playing returns the current clip name and whether it is advancing.
func (s *SpriteSurface) Playing() (string, bool) {
	if s.clip == nil {
		return "", false
	}
	return s.clip.Name, s.playing
}

// Finished reports whether a non-looping clip reached its last frame. A
// surface with no clip is finished.
func (s *SpriteSurface) Finished() bool {
	return s.clip == nil || s.done
}

// ClipDuration returns the length of one pass through clip.
func (s *SpriteSurface) ClipDuration(clip string) (time.Duration, bool) {
	c, ok := s.sheet.clips[clip]
	if !ok {
		return 0, false
	}
	return c.Duration(), true
}

// Update advances the current clip by dt. Its signature matches
// Scene.OnUpdate.
func (s *SpriteSurface) Update(dt time.Duration) {
	if !s.playing || s.done || s.clip == nil {
		return
	}
	s.elapsed += dt
	for {
		d := s.clip.Frames[s.frame].Duration
		if s.elapsed < d {
			break
		}
		if s.frame == len(s.clip.Frames)-1 {
			if !s.clip.Loop {
				s.done = true
				s.elapsed = 0
				break
			}
			s.frame = 0
		} else {
			s.frame++
		}
		s.elapsed -= d
	}
	s.show()
}

func (s *SpriteSurface) show() {
	s.node.SetImage(s.clip.Frames[s.frame].Image)
}
