package measure

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultHFOV is default camera horizontal field of view, degrees
const DefaultHFOV = 90.0

// Heading returns bearing (degrees clockwise from north, in [0, 360)) of image column x
// for a camera with given yaw and horizontal field of view.
func Heading(x float64, imageWidth int, yaw, hfov float64) float64 {
	if imageWidth <= 0 {
		return normalizeDegrees(yaw)
	}
	inCameraAngle := (x/float64(imageWidth) - 0.5) * hfov
	return normalizeDegrees(yaw + inCameraAngle)
}

// Locate moves observer (lon, lat) by distance meters along the heading
func Locate(observer orb.Point, heading, distance float64) orb.Point {
	return geo.PointAtBearingAndDistance(observer, heading, distance)
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
