// Package capture rasterizes a cluster of strokes into a square PNG
// texture. Notes display these textures on their face, and they are what a
// downstream interpretation step would consume.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
	"github.com/inkfinity/inkfinity/backend-go/internal/typeid"
)

var ErrEmptyCluster = errors.New("no strokes to capture")

// supersample draws at twice the output size and downsamples, which reads
// better than stamping at target resolution directly.
const supersample = 2

// margin is the fraction of the canvas left blank around the ink.
const marginFraction = 0.08

var inkColor = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}

// Rasterizer renders stroke clusters and stores the results on disk.
type Rasterizer struct {
	dir  string
	size int
}

func NewRasterizer(dir string, size int) *Rasterizer {
	return &Rasterizer{dir: dir, size: size}
}

// Capture renders the cluster and writes it under the texture directory,
// returning the new texture ID.
func (r *Rasterizer) Capture(strokes []*stroke.Stroke) (string, error) {
	img, err := r.Render(strokes)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create texture dir: %w", err)
	}
	id := typeid.NewTextureID()
	if err := imaging.Save(img, filepath.Join(r.dir, id+".png")); err != nil {
		return "", fmt.Errorf("save texture: %w", err)
	}
	return id, nil
}

// Render projects the cluster onto its surface plane, draws the strokes
// with their recorded widths, softens the ink, and fits the result to the
// configured texture size.
func (r *Rasterizer) Render(strokes []*stroke.Stroke) (image.Image, error) {
	if len(strokes) == 0 {
		return nil, ErrEmptyCluster
	}

	origin, u, v := planeBasis(strokes)

	type flatPoint struct {
		s, t, w float64
	}
	flat := make([][]flatPoint, len(strokes))
	minS, minT := math.Inf(1), math.Inf(1)
	maxS, maxT := math.Inf(-1), math.Inf(-1)
	total := 0
	for i, st := range strokes {
		flat[i] = make([]flatPoint, len(st.Points))
		for j, p := range st.Points {
			d := p.Sub(origin)
			fp := flatPoint{s: d.Dot(u), t: d.Dot(v), w: st.Widths[j]}
			flat[i][j] = fp
			minS = math.Min(minS, fp.s)
			minT = math.Min(minT, fp.t)
			maxS = math.Max(maxS, fp.s)
			maxT = math.Max(maxT, fp.t)
			total++
		}
	}
	if total == 0 {
		return nil, ErrEmptyCluster
	}

	extent := math.Max(maxS-minS, maxT-minT)
	if extent < geom.Epsilon {
		extent = 1 // a single dot still gets a canvas
	}

	side := r.size * supersample
	margin := float64(side) * marginFraction
	scale := (float64(side) - 2*margin) / extent

	// Center the ink on a square canvas.
	offS := (float64(side) - (maxS-minS)*scale) / 2
	offT := (float64(side) - (maxT-minT)*scale) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for _, pts := range flat {
		for j := range pts {
			x := (pts[j].s-minS)*scale + offS
			// Texture rows grow downward, plane t grows upward.
			y := float64(side) - ((pts[j].t-minT)*scale + offT)
			radius := math.Max(pts[j].w*scale/2, 1)
			if j > 0 {
				px := (pts[j-1].s-minS)*scale + offS
				py := float64(side) - ((pts[j-1].t-minT)*scale + offT)
				stampSegment(canvas, px, py, x, y, radius)
			} else {
				stampDisk(canvas, x, y, radius)
			}
		}
	}

	soft := blur.Gaussian(canvas, 0.8)
	return imaging.Resize(soft, r.size, r.size, imaging.Lanczos), nil
}

// planeBasis builds an orthonormal (u, v) frame on the cluster's surface.
// The normal comes from the first stroke with three usable points, with the
// same world-up fallback the clusterer applies to flat handwriting.
func planeBasis(strokes []*stroke.Stroke) (origin, u, v geom.Point) {
	normal := geom.Up
	for _, st := range strokes {
		if len(st.Points) < 3 {
			continue
		}
		n := st.Points[1].Sub(st.Points[0]).Cross(st.Points[2].Sub(st.Points[0])).Normalize()
		if n.Length() < geom.Epsilon {
			continue
		}
		if math.Abs(n.Dot(geom.Up)) < 0.3 {
			n = geom.Up
		}
		normal = n
		break
	}

	ref := geom.Up
	if math.Abs(normal.Dot(geom.Up)) > 0.9 {
		ref = geom.Point{X: 1}
	}
	u = ref.Cross(normal).Normalize()
	v = normal.Cross(u)
	return strokes[0].Points[0], u, v
}

// stampSegment draws a stroke segment by stamping disks at roughly
// one-pixel intervals between the endpoints.
func stampSegment(img *image.RGBA, x0, y0, x1, y1, radius float64) {
	dist := math.Hypot(x1-x0, y1-y0)
	steps := int(dist) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stampDisk(img, x0+(x1-x0)*t, y0+(y1-y0)*t, radius)
	}
}

func stampDisk(img *image.RGBA, cx, cy, radius float64) {
	r2 := radius * radius
	x0, x1 := int(cx-radius), int(cx+radius)+1
	y0, y1 := int(cy-radius), int(cy+radius)+1
	b := img.Bounds()
	for y := y0; y <= y1; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := x0; x <= x1; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r2 {
				img.SetRGBA(x, y, inkColor)
			}
		}
	}
}
