package risk

import (
	"fmt"
	"math"
	"strings"
)

const (
	sameLocationKm  = 50
	failuresForMax  = 5
	busyLoginsCount = 3
	burstLogins     = 6
)

func scoreFactors(sc SessionContext) map[string]FactorScore {
	return map[string]FactorScore{
		FactorFailedAttempts:   failedAttempts(sc.RecentFailures),
		FactorUnusualLocation:  location(sc.GeoDeltaKm),
		FactorTimeRisk:         timeOfDay(sc.LocalHour),
		FactorPreviousBreaches: lastLogin(sc.DaysSinceLastLogin),
		FactorDeviceRisk:       device(sc.DeviceType, sc.KnownDevice),
		FactorLoginVelocity:    velocity(sc.LoginsLastHour),
	}
}

func failedAttempts(n int) FactorScore {
	s := math.Min(float64(max(n, 0))/failuresForMax, 1)
	switch {
	case s == 0:
		return FactorScore{s, "No recent failed verification attempts"}
	case s < 0.6:
		return FactorScore{s, "Few recent failed verification attempts"}
	default:
		return FactorScore{s, "Multiple failed verification attempts detected"}
	}
}

func location(deltaKm *float64) FactorScore {
	switch {
	case deltaKm == nil:
		return FactorScore{0.5, "Location unknown"}
	case *deltaKm <= sameLocationKm:
		return FactorScore{0.1, "Login from familiar location"}
	default:
		return FactorScore{0.9, fmt.Sprintf("Location changed by %.0f km", *deltaKm)}
	}
}

func timeOfDay(hour *int) FactorScore {
	if hour == nil {
		return FactorScore{0.5, "Local time unknown"}
	}
	h := *hour
	switch {
	case h >= 9 && h < 18:
		return FactorScore{0.2, "Login during normal business hours"}
	case (h >= 5 && h < 9) || (h >= 18 && h < 23):
		return FactorScore{0.5, "Login during non-standard hours"}
	default:
		return FactorScore{0.8, "Login during unusual hours (late night/early morning)"}
	}
}

func lastLogin(days *int) FactorScore {
	switch {
	case days == nil:
		return FactorScore{0.5, "First time login"}
	case *days > 30:
		return FactorScore{0.8, fmt.Sprintf("First login in over 30 days (%d days)", *days)}
	case *days > 7:
		return FactorScore{0.5, fmt.Sprintf("First login in over a week (%d days)", *days)}
	default:
		return FactorScore{0.2, fmt.Sprintf("Recent login activity (%d days ago)", *days)}
	}
}

func device(deviceType string, known bool) FactorScore {
	var fs FactorScore
	switch strings.ToLower(deviceType) {
	case "mobile":
		fs = FactorScore{0.6, "Login from mobile device"}
	case "desktop":
		fs = FactorScore{0.3, "Login from desktop with common browser"}
	default:
		fs = FactorScore{0.7, "Login from uncommon device"}
	}
	if !known {
		fs.Score = math.Max(fs.Score, 0.8)
		fs.Description += ", fingerprint not seen before"
	}
	return fs
}

func velocity(logins int) FactorScore {
	switch {
	case logins >= burstLogins:
		return FactorScore{0.9, fmt.Sprintf("%d logins in the last hour", logins)}
	case logins >= busyLoginsCount:
		return FactorScore{0.5, fmt.Sprintf("%d logins in the last hour", logins)}
	default:
		return FactorScore{0.1, "Normal login frequency"}
	}
}
