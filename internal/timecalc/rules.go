package timecalc

import "time"

const (
	breakTierOneAfterMinutes = 6 * 60
	breakTierTwoAfterMinutes = 9 * 60

	breakTierOneMinutes    = 30
	breakTierTwoMinutes    = 45
	continuousBreakMinutes = 30
	MaxDailyWorkMinutes    = 10 * 60
	MinRestPeriodMinutes   = 11 * 60
)

// RequiredBreakTotalMinutes maps worked minutes to the minimum total break.
func RequiredBreakTotalMinutes(workedMinutes int) int {
	if workedMinutes > breakTierTwoAfterMinutes {
		return breakTierTwoMinutes
	}
	if workedMinutes > breakTierOneAfterMinutes {
		return breakTierOneMinutes
	}
	return 0
}

// RequiredContinuousBreakMinutes shares the trigger of the total requirement.
func RequiredContinuousBreakMinutes(workedMinutes int) int {
	if RequiredBreakTotalMinutes(workedMinutes) > 0 {
		return continuousBreakMinutes
	}
	return 0
}

func MaxDailyWorkExceeded(workedMinutes int) bool {
	return workedMinutes > MaxDailyWorkMinutes
}

func RestPeriodViolation(restMinutes int) bool {
	return restMinutes < MinRestPeriodMinutes
}

// RestPeriod measures the rest between the last GO and the next first COME.
func RestPeriod(lastGo, firstCome time.Time) (minutes int, violation bool) {
	minutes = Minutes(SecondsBetween(lastGo, firstCome))
	return minutes, RestPeriodViolation(minutes)
}

// MaxContinuousBreakMinutes is the longest single interval, not the sum.
func MaxContinuousBreakMinutes(intervals []Interval) int {
	var longest int64
	for _, iv := range intervals {
		if s := iv.Seconds(); s > longest {
			longest = s
		}
	}
	return Minutes(longest)
}
