package matrikkel

import (
	dErrors "masseutsendelse/pkg/domain-errors"
)

// CoordinateSystemCode is Matrikkel's own identifier for a coordinate
// reference system (koordinatsystemKodeId). Zero means unset.
type CoordinateSystemCode int

// coordinateSystems maps EPSG codes to Matrikkel codes. Several EPSG codes
// may share one Matrikkel code.
var coordinateSystems = map[string]CoordinateSystemCode{
	"4326":  24, // WGS 84
	"5972":  10, // ETRS89 / UTM 32N + NN2000 height
	"25832": 10, // ETRS89 / UTM 32N
}

// ResolveCoordinateSystem translates an EPSG code into a Matrikkel code.
func ResolveCoordinateSystem(epsg string) (CoordinateSystemCode, error) {
	if epsg == "" {
		return 0, dErrors.WithTitle(dErrors.CodeUnsupportedCoordinateSystem,
			"Koordinatsystem mangler",
			"Kan ikke kontakte matrikkelen uten å vite epsg-koden til koordinatene")
	}
	code, ok := coordinateSystems[epsg]
	if !ok {
		return 0, dErrors.WithTitle(dErrors.CodeUnsupportedCoordinateSystem,
			"Feil koordinatsystem",
			"Kunne ikke finne passende koordinatsystem for koordinatene (EPSG:"+epsg+")")
	}
	return code, nil
}
