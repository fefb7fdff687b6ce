// Package geom provides the small amount of 3D vector math the simulation
// needs: distances, horizontal movement steps, and facing angles.
package geom

import "math"

// Vector3 is a point or direction in world space. Y is up.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Dist returns the full 3D euclidean distance between a and b.
func Dist(a, b Vector3) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HorizontalDist returns the distance between a and b in the XZ plane.
func HorizontalDist(a, b Vector3) float64 {
	dx := b.X - a.X
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// YawTo returns the facing angle from a toward b as atan2(dx, dz).
// This matches the client's convention where zero yaw faces +Z.
func YawTo(a, b Vector3) float64 {
	return math.Atan2(b.X-a.X, b.Z-a.Z)
}

// StepToward moves from toward to by dist in the XZ plane, holding Y fixed.
// If the remaining horizontal distance is <= dist, the target's X/Z are
// reached exactly.
//
// Postcondition: the returned vector's Y equals from.Y.
func StepToward(from, to Vector3, dist float64) Vector3 {
	dx := to.X - from.X
	dz := to.Z - from.Z
	d := math.Sqrt(dx*dx + dz*dz)
	if d <= dist || d == 0 {
		return Vector3{X: to.X, Y: from.Y, Z: to.Z}
	}
	return Vector3{
		X: from.X + dx/d*dist,
		Y: from.Y,
		Z: from.Z + dz/d*dist,
	}
}

// OnCircle returns the point at the given angle and radius from center,
// in the XZ plane at center's height.
func OnCircle(center Vector3, angle, radius float64) Vector3 {
	return Vector3{
		X: center.X + math.Cos(angle)*radius,
		Y: center.Y,
		Z: center.Z + math.Sin(angle)*radius,
	}
}
