// Package config loads julian.toml, which holds the Google OAuth client and
// the defaults used for free-slot searches.
//
// Example file:
//
//	[google]
//	client_id = "1234.apps.googleusercontent.com"
//	client_secret = "..."
//
//	[scheduling]
//	slot_duration_minutes = 30
//	business_start_hour = 9
//	business_end_hour = 18
//	working_days = ["mon", "tue", "wed", "thu"]
package config
