package services

import "time"

// Greeting returns the salutation for the hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h >= 6 && h <= 11:
		return "Доброе утро"
	case h >= 12 && h <= 17:
		return "Добрый день"
	case h >= 18 && h <= 23:
		return "Добрый вечер"
	default:
		return "Доброй ночи"
	}
}
