package livewall

import "image"

// Point is a position in the global desktop coordinate space.
// Pointer samples use sub-pixel precision, so coordinates are float64.
type Point struct {
	X, Y float64
}

// In reports whether p falls inside r (half-open, like image.Rectangle).
func (p Point) In(r image.Rectangle) bool {
	return p.X >= float64(r.Min.X) && p.X < float64(r.Max.X) &&
		p.Y >= float64(r.Min.Y) && p.Y < float64(r.Max.Y)
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}
