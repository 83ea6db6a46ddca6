package tracking

import "image"

// IoU calculates Intersection over Union between two boxes.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	intersection := area(inter)
	union := area(a) + area(b) - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

func area(r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	return float64(r.Dx()) * float64(r.Dy())
}
