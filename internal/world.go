package internal

import "math"

// World size in client world units: the 1280x960 viewport over a map drawn at 2x.
const (
	WorldWidth  = 2560.0
	WorldHeight = 1920.0
	SpawnRadius = 300.0
)

func ClampToWorld(x, y float64) (float64, float64) {
	if math.IsNaN(x) {
		x = 0
	}
	if math.IsNaN(y) {
		y = 0
	}
	return math.Min(math.Max(x, 0), WorldWidth), math.Min(math.Max(y, 0), WorldHeight)
}

func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Normalize scales an input vector to unit length; zero stays zero.
func Normalize(dx, dy float64) (float64, float64) {
	l := math.Hypot(dx, dy)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return 0, 0
	}
	return dx / l, dy / l
}

// SpawnPoint places player i of n evenly on a ring around the world centre.
func SpawnPoint(i, n int) (float64, float64) {
	cx, cy := WorldWidth/2, WorldHeight/2
	if n <= 1 {
		return cx, cy
	}
	angle := 2 * math.Pi * float64(i) / float64(n)
	return ClampToWorld(cx+SpawnRadius*math.Cos(angle), cy+SpawnRadius*math.Sin(angle))
}

// LobbySpawn is where a player appears when joining a room.
func LobbySpawn(i int) (float64, float64) {
	return ClampToWorld(WorldWidth/2-210+float64(i%8)*60, WorldHeight/2)
}
