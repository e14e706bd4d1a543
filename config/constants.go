package config

import "time"

const (
	// measurement annotation appearance
	MEASURE_STROKE_WIDTH = 3.0
	MEASURE_CAP_LENGTH   = 14.0
	MEASURE_COLOR        = "#ef4444"

	// freehand ink
	DRAW_STROKE_WIDTH = 3.0
	DRAW_COLOR        = "#ef4444"

	// default text annotation
	TEXT_FONT_SIZE = 24.0
	TEXT_DEFAULT_X = 100.0
	TEXT_DEFAULT_Y = 100.0

	// export rasterization
	FLATTEN_MULTIPLIER = 2.0

	// derived location numbers start at {projectNumber}-100
	LOCATION_NUMBER_BASE = 100

	GUEST_TOKEN_TTL    = 24 * time.Hour
	GUEST_INFO_MAX_LEN = 5_000

	CACHE_DURATION = 5 * time.Second
	CACHE_CLEANUP  = 15 * time.Second
)
