package derive

// TimeAnchor converts elapsed simulation minutes to an absolute calendar
// timestamp. OriginUnix zero means "no calendar", only day/hour bookkeeping.
type TimeAnchor struct {
	OriginUnix int64 `json:"origin_unix,omitempty"`
	StartHour  int   `json:"start_hour"`
}

// Time-of-day buckets.
const (
	BucketMorning   = "morning"
	BucketAfternoon = "afternoon"
	BucketEvening   = "evening"
	BucketNight     = "night"
)

type Time struct {
	Day    int    `json:"day"` // 1-indexed
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Bucket string `json:"bucket"`
	Unix   int64  `json:"unix,omitempty"`
}

func TimeAt(elapsedMinutes int, anchor TimeAnchor) Time {
	total := anchor.StartHour*60 + elapsedMinutes
	t := Time{
		Day:    total/1440 + 1,
		Hour:   (total / 60) % 24,
		Minute: total % 60,
	}
	t.Bucket = bucketFor(t.Hour)
	if anchor.OriginUnix != 0 {
		t.Unix = anchor.OriginUnix + int64(elapsedMinutes)*60
	}
	return t
}

func bucketFor(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return BucketMorning
	case hour >= 12 && hour < 17:
		return BucketAfternoon
	case hour >= 17 && hour < 21:
		return BucketEvening
	default:
		return BucketNight
	}
}

// IsDaylight reports whether the hour falls in the morning/afternoon/evening
// band. Weather temperature and visibility use it.
func IsDaylight(hour int) bool {
	return hour >= 5 && hour < 21
}
