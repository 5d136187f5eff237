// pkg/world/index.go
package world

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/physics"
)

const (
	indexMinChildren = 25
	indexMaxChildren = 50
	pointTolerance   = 0.01
)

// indexedMount places a mount in the spatial index
type indexedMount struct {
	mount *entity.Mount
	point rtreego.Point
}

func (m *indexedMount) Bounds() rtreego.Rect {
	return m.point.ToRect(pointTolerance)
}

func toPoint(v physics.Vector3) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}

func (w *World) rebuildIndex() {
	spatials := make([]rtreego.Spatial, 0, len(w.mounts))
	for _, m := range w.Mounts() {
		spatials = append(spatials, &indexedMount{mount: m, point: toPoint(m.Position)})
	}
	w.index = rtreego.NewTree(3, indexMinChildren, indexMaxChildren, spatials...)
	w.indexDirty = false
}

// NearestMount returns the closest mount of the given kind within radius of
// position. Ties go to the lower id.
func (w *World) NearestMount(position physics.Vector3, kind entity.Kind, radius float64) (entity.ID, bool) {
	if radius <= 0 {
		return entity.None, false
	}
	if w.indexDirty {
		w.rebuildIndex()
	}

	corner := toPoint(position.Sub(physics.Vector3{X: radius, Y: radius, Z: radius}))
	box, err := rtreego.NewRect(corner, []float64{2 * radius, 2 * radius, 2 * radius})
	if err != nil {
		return entity.None, false
	}

	candidates := w.index.SearchIntersect(box, func(_ []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		return obj.(*indexedMount).mount.Kind != kind, false
	})

	best, bestDist := entity.None, math.Inf(1)
	for _, c := range candidates {
		m := c.(*indexedMount).mount
		d := m.Position.Sub(position).Length()
		if d > radius {
			continue
		}
		if d < bestDist || (d == bestDist && m.GetID() < best) {
			best, bestDist = m.GetID(), d
		}
	}
	return best, best != entity.None
}
