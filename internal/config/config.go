package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-BaZi/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go BaZi"
	AppBinary         = "go-bazi"
	AppID             = "com.github.tartampluch.go-bazi"
	KeyringService    = "com.github.tartampluch.go-bazi"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "settings.yaml"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands, Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	CmdChart   = "chart"
	CmdICS     = "ics"
	CmdBatch   = "batch"
	CmdServe   = "serve"
	CmdVersion = "version"

	FlagDebug    = "debug"
	FlagConfig   = "config"
	FlagDate     = "date"
	FlagTime     = "time"
	FlagGender   = "gender"
	FlagLang     = "lang"
	FlagJSON     = "json"
	FlagFrom     = "from"
	FlagYears    = "years"
	FlagRules    = "rules"
	FlagSource   = "source"
	FlagPath     = "path"
	FlagURL      = "url"
	FlagUser     = "user"
	FlagPort     = "port"
	FlagInterval = "interval"
	FlagName     = "name"

	FlagDescDebug    = "Enable debug logging with source locations"
	FlagDescConfig   = "Path to a YAML settings file"
	FlagDescDate     = "Gregorian birth date (YYYY-MM-DD)"
	FlagDescTime     = "Birth time (HH:MM, HH, or a traditional hour such as 午时)"
	FlagDescGender   = "Gender (male|female)"
	FlagDescLang     = "Report language (en|zh)"
	FlagDescJSON     = "Print the chart as JSON instead of a text report"
	FlagDescFrom     = "First Liu Nian year (default: max(birth year, current year))"
	FlagDescYears    = "Number of Liu Nian years to project"
	FlagDescRules    = "Path to a YAML rule book replacing the embedded default"
	FlagDescSource   = "vCard source mode (local|web)"
	FlagDescPath     = "Path to a local .vcf file"
	FlagDescURL      = "CardDAV or WebDAV URL of a vCard collection"
	FlagDescUser     = "HTTP Basic Auth user; the password is read from the OS keyring"
	FlagDescPort     = "HTTP server port"
	FlagDescInterval = "Feed refresh interval in minutes (0 disables refresh)"
	FlagDescName     = "Name shown in event summaries"

	ShortRoot    = "Four Pillars (BaZi) chart engine"
	ShortChart   = "Compute a chart and print it"
	ShortICS     = "Compute a chart and print it as an iCalendar feed"
	ShortBatch   = "Compute charts for every contact of a vCard source and print an iCalendar feed"
	ShortServe   = "Serve charts and the contact feed over HTTP"
	ShortVersion = "Print version information"

	MsgVersionOutput = "%s version %s, built %s (%s/%s)\n"
)

// SupportedLanguages defines the list of available report languages.
var SupportedLanguages = []string{"en", "zh"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyReportTitle     = "report_title"
	TKeyLblBirth        = "lbl_birth"
	TKeyLblGender       = "lbl_gender"
	TKeyLblPillars      = "lbl_pillars"
	TKeyLblYear         = "lbl_year"
	TKeyLblMonth        = "lbl_month"
	TKeyLblDay          = "lbl_day"
	TKeyLblHour         = "lbl_hour"
	TKeyLblElements     = "lbl_elements"
	TKeyLblShenSha      = "lbl_shensha"
	TKeyLblNone         = "lbl_none"
	TKeyLblClash        = "lbl_clash"
	TKeyLblSpirit       = "lbl_governing_spirit"
	TKeyLblDirections   = "lbl_directions"
	TKeyLblJoy          = "lbl_joy"
	TKeyLblFortune      = "lbl_fortune"
	TKeyLblWealth       = "lbl_wealth"
	TKeyLblDaYun        = "lbl_dayun"
	TKeyLblDaYunStart   = "lbl_dayun_start" // Requires Age, Year, Direction
	TKeyLblLiuNian      = "lbl_liunian"
	TKeyLblZodiac       = "lbl_zodiac"
	TKeyGenderMale      = "gender_male"
	TKeyGenderFemale    = "gender_female"
	TKeyDirForward      = "dir_forward"
	TKeyDirBackward     = "dir_backward"
	TKeyEvtDaYun        = "event_dayun"   // Requires Name, Pillar, Index
	TKeyEvtLiuNian      = "event_liunian" // Requires Name, Pillar, Age
	TKeyColAges         = "col_ages"
	TKeyColYears        = "col_years"
	TKeyColPillar       = "col_pillar"
	TKeyColTenGod       = "col_ten_god"
	TKeyColFavorability = "col_favorability"
	TKeyColAge          = "col_age"
	TKeyColMarkers      = "col_markers"
	TKeyLblWangShuai    = "lbl_wang_shuai"
	TKeyLblPengZu       = "lbl_peng_zu"
	TKeyColDaYunLink    = "col_dayun_link"
	TKeyColSuiYun       = "col_sui_yun" // Requires Yin, Yang

	// Prefixes of generated keys: "fav_<label>", "marker_<id>", "elem_<name>",
	// "tengod_<name>", "zodiac_<animal>", "officer_<name>", "trigram_<name>",
	// "strength_<name>", "relation_<name>".
	TKeyPrefixFav      = "fav_"
	TKeyPrefixMarker   = "marker_"
	TKeyPrefixElement  = "elem_"
	TKeyPrefixTenGod   = "tengod_"
	TKeyPrefixZodiac   = "zodiac_"
	TKeyPrefixOfficer  = "officer_"
	TKeyPrefixTrigram  = "trigram_"
	TKeyPrefixStrength = "strength_"
	TKeyPrefixRelation = "relation_"

	// CurrentMark flags the running Da Yun period and Liu Nian year.
	CurrentMark = "*"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb     = "web"
	SourceModeLocal   = "local"
	DefaultPort       = "18081"
	DefaultRefreshMin = 60
	DefaultLanguage   = "en"
	UIDSalt           = "go-bazi-v1-" // Salt for deterministic UID generation

	GenderMale   = "male"
	GenderFemale = "female"

	// Accepted birth years.
	MinBirthYear = 1900
	MaxBirthYear = 2100

	// DaYunPeriods is the number of decade periods projected.
	DaYunPeriods = 8
	// DaYunSpan is the length in years of one period.
	DaYunSpan = 10
	// DaysPerFortuneYear is the traditional rate: three days between birth and
	// the governing solar term count as one year of starting age.
	DaysPerFortuneYear = 3
	// MinStartAge is the floor of the Da Yun starting age.
	MinStartAge = 1

	DefaultLiuNianYears = 10
	MinLiuNianYears     = 1
	MaxLiuNianYears     = 60

	// BatchConcurrency bounds concurrent chart computations in a vCard batch.
	BatchConcurrency = 8
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion = "2.0"
	ICalProdid  = "-//Go BaZi//Engine//EN"
	ICalCalName = "BaZi Fortune Cycles"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "gobazi"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropCategories  = "CATEGORIES"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	CategoryDaYun   = "DAYUN"
	CategoryLiuNian = "LIUNIAN"

	// DescHourUnknown ends descriptions of charts whose BDAY had no time of day.
	DescHourUnknown = " · birth hour unknown (computed for 00:00)"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"
	VCardN    = "N"

	DefaultICalRefresh = 24 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// Date layouts accepted for birth dates (CLI, HTTP and vCard BDAY).
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatDashT     = "2006-01-02T15:04:05"
	DateFormatBasicT    = "20060102T150405"
	DateFormatBasicTZ   = "20060102T150405Z"
	DateFormatDashTMin  = "2006-01-02T15:04"

	// Time layouts accepted for birth times.
	TimeFormatHM  = "15:04"
	TimeFormatHMS = "15:04:05"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%s-%d@%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	RouteFeed     = "/feed.ics"
	RouteChart    = "/chart"
	RouteChartICS = "/chart.ics"
	RouteMetrics  = "/metrics"

	QueryDate   = "date"
	QueryTime   = "time"
	QueryGender = "gender"
	QueryFrom   = "from"
	QueryYears  = "years"
	QueryName   = "name"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeVCard           = "text/vcard"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty  = "configuration error: local path is empty"
	ErrWebURLEmpty     = "configuration error: web URL is empty"
	ErrFetcherMissing  = "internal error: network fetcher is not initialized"
	ErrModeUnsupport   = "configuration error: unsupported source mode"
	ErrCalendarMissing = "internal error: calendar service is not initialized"
	ErrCharterMissing  = "internal error: chart engine is not initialized"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrRequestBuild    = "failed to create request"
	ErrNetwork         = "network error during fetch"
	ErrNotInteger      = "must be an integer"
	ErrVCardParse      = "failed to parse vCard stream"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrDateParse       = "unable to parse date"
	ErrTimeParse       = "unable to parse time"
	ErrGenderParse     = "unknown gender"
	ErrDateNotExist    = "date does not exist in the Gregorian calendar"
	ErrOutOfRange      = "value out of range"
	ErrInvalidInput    = "invalid input"
	ErrInvalidPillar   = "calendar service returned an invalid pillar"
	ErrCalculation     = "calculation failed"
	ErrLunarPillars    = "lunar pillars unavailable"
	ErrSolarTerm       = "governing solar term unavailable"
	ErrYearPolarity    = "year stem polarity unavailable"
	ErrRulesLoad       = "failed to load rule book"
	ErrRulesInvalid    = "invalid rule book"
	ErrSettingsLoad    = "failed to load settings"
	ErrSettingsInvalid = "invalid settings"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrConfigDir       = "could not determine user config dir"
	ErrCreateDir       = "could not create app cache dir"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrBatchIncomplete = "some contacts could not be charted"
	ErrJSONEncode      = "failed to encode JSON"
	ErrLiuNianWindow   = "liu nian window out of range"
	ErrMissingGender   = "gender is unknown"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgUpstreamErr  = "Calendar service unavailable"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackName         = "Unknown"
	FallbackSummaryDaYun = "%s: Da Yun %d %s"
	FallbackSummaryYear  = "%s: %s year (age %d)"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgChartComputed  = "Chart computed"
	MsgSyncStarted    = "Feed synchronization started"
	MsgSyncFinished   = "Feed synchronization finished"
	MsgSyncFailed     = "Feed synchronization failed"
	MsgWorkerStart    = "Background worker started"
	MsgWorkerStop     = "Worker stopping due to context cancellation"
	MsgAppStop        = "Application stopped gracefully"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping contact without a usable birth date"
	MsgSkippedGender  = "Skipping contact without a usable gender"
	MsgSkippedChart   = "Skipping contact whose chart failed"
	MsgGenSuccess     = "Calendar generation successful"
	MsgAppStarting    = "Starting application"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Feed cache updated"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgRulesLoaded    = "Rule book loaded"
	MsgRequestFailed  = "Chart request failed"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgSettingsLoaded = "Settings loaded"
	MsgLunarResolved  = "Lunar pillars resolved"
	MsgTermResolved   = "Governing solar term resolved"

	MsgFetchStart       = "Initiating vCard download"
	MsgPassFail         = "No password in keyring, continuing without"
	MsgFetchBadStatus   = "Server returned error status"
	MsgFetchDownloading = "vCards downloading"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyUser      = "user"
	LogKeyTotal     = "total_cards"
	LogKeyCharted   = "charts_built"
	LogKeyFailed    = "charts_failed"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDOB       = "date_of_birth"
	LogKeyDuration  = "duration_ms"
	LogKeyPillars   = "pillars"
	LogKeyDirection = "direction"
	LogKeyStartAge  = "start_age"
	LogKeyRules     = "rules"
	LogKeyPath      = "path"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine  = "engine"
	CompRules   = "rules"
	CompLunar   = "lunar"
	CompFeed    = "feed"
	CompFetcher = "fetcher"
	CompServer  = "server"
	CompWorker  = "worker"
	CompMain    = "main"
	CompI18n    = "i18n"
	CompConfig  = "config"
)
