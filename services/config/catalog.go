package config

// Pass-through variables per service. Values are copied from the environment
// when present; absent variables are left out of the container environment.

var xmppEnvKeys = []string{
	"AUTH_TYPE",
	"ENABLE_AUTH",
	"ENABLE_GUESTS",
	"GLOBAL_MODULES",
	"GLOBAL_CONFIG",
	"LDAP_URL",
	"LDAP_BASE",
	"LDAP_BINDDN",
	"LDAP_BINDPW",
	"LDAP_FILTER",
	"LDAP_AUTH_METHOD",
	"LDAP_VERSION",
	"LDAP_USE_TLS",
	"LDAP_TLS_CIPHERS",
	"LDAP_TLS_CHECK_PEER",
	"LDAP_TLS_CACERT_FILE",
	"LDAP_TLS_CACERT_DIR",
	"LDAP_START_TLS",
	"XMPP_DOMAIN",
	"XMPP_AUTH_DOMAIN",
	"XMPP_GUEST_DOMAIN",
	"XMPP_MUC_DOMAIN",
	"XMPP_INTERNAL_MUC_DOMAIN",
	"XMPP_MODULES",
	"XMPP_MUC_MODULES",
	"XMPP_INTERNAL_MUC_MODULES",
	"XMPP_RECORDER_DOMAIN",
	"JICOFO_AUTH_USER",
	"JVB_AUTH_USER",
	"JIGASI_XMPP_USER",
	"JIBRI_XMPP_USER",
	"JIBRI_RECORDER_USER",
	"JWT_APP_ID",
	"JWT_APP_SECRET",
	"JWT_ACCEPTED_ISSUERS",
	"JWT_ACCEPTED_AUDIENCES",
	"JWT_ASAP_KEYSERVER",
	"JWT_ALLOW_EMPTY",
	"JWT_AUTH_TYPE",
	"JWT_TOKEN_AUTH_MODULE",
	"LOG_LEVEL",
	"TZ",
}

var focusEnvKeys = []string{
	"AUTH_TYPE",
	"ENABLE_AUTH",
	"XMPP_DOMAIN",
	"XMPP_AUTH_DOMAIN",
	"XMPP_INTERNAL_MUC_DOMAIN",
	"XMPP_SERVER",
	"JICOFO_AUTH_USER",
	"JICOFO_RESERVATION_REST_BASE_URL",
	"JVB_BREWERY_MUC",
	"JIGASI_BREWERY_MUC",
	"JIGASI_SIP_URI",
	"JIBRI_BREWERY_MUC",
	"JIBRI_PENDING_TIMEOUT",
	"TZ",
}

var mediaRelayEnvKeys = []string{
	"DOCKER_HOST_ADDRESS",
	"XMPP_AUTH_DOMAIN",
	"XMPP_INTERNAL_MUC_DOMAIN",
	"XMPP_SERVER",
	"JVB_AUTH_USER",
	"JVB_BREWERY_MUC",
	"JVB_PORT",
	"JVB_TCP_HARVESTER_DISABLED",
	"JVB_TCP_PORT",
	"JVB_STUN_SERVERS",
	"JVB_ENABLE_APIS",
	"TZ",
}

var webEnvKeys = []string{
	"ENABLE_AUTH",
	"ENABLE_GUESTS",
	"ENABLE_HTTP_REDIRECT",
	"ENABLE_TRANSCRIPTIONS",
	"DISABLE_HTTPS",
	"JICOFO_AUTH_USER",
	"LETSENCRYPT_DOMAIN",
	"LETSENCRYPT_EMAIL",
	"PUBLIC_URL",
	"XMPP_DOMAIN",
	"XMPP_AUTH_DOMAIN",
	"XMPP_BOSH_URL_BASE",
	"XMPP_GUEST_DOMAIN",
	"XMPP_MUC_DOMAIN",
	"XMPP_RECORDER_DOMAIN",
	"ETHERPAD_URL_BASE",
	"TZ",
	"JIBRI_BREWERY_MUC",
	"JIBRI_PENDING_TIMEOUT",
	"JIBRI_XMPP_USER",
	"JIBRI_RECORDER_USER",
	"ENABLE_RECORDING",
}

// Container names and image repositories of the four services.
const (
	xmppContainer       = "jitsi-xmpp"
	focusContainer      = "jitsi-jicofo"
	mediaRelayContainer = "jitsi-jvb"
	webContainer        = "jitsi-web"

	xmppImage       = "prosody"
	focusImage      = "jicofo"
	mediaRelayImage = "jvb"
	webImage        = "web"
)

// Host directories under the config root, relative paths.
const (
	DirWeb           = "web"
	DirLetsEncrypt   = "web/letsencrypt"
	DirTranscripts   = "transcripts"
	DirProsodyConfig = "prosody/config"
	DirProsodyPlugin = "prosody/prosody-plugins-custom"
	DirJicofo        = "jicofo"
	DirJVB           = "jvb"
)

// xmppPorts are published on ephemeral host ports.
var xmppPorts = []uint16{5222, 5280, 5347}

const defaultRetryCount = 5
