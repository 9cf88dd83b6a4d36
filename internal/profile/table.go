package profile

// may contain long lines

const (
	chromeCiphers = "TLS_AES_128_GCM_SHA256,TLS_AES_256_GCM_SHA384,TLS_CHACHA20_POLY1305_SHA256," +
		"ECDHE-ECDSA-AES128-GCM-SHA256,ECDHE-RSA-AES128-GCM-SHA256,ECDHE-ECDSA-AES256-GCM-SHA384," +
		"ECDHE-RSA-AES256-GCM-SHA384,ECDHE-ECDSA-CHACHA20-POLY1305,ECDHE-RSA-CHACHA20-POLY1305," +
		"ECDHE-RSA-AES128-SHA,ECDHE-RSA-AES256-SHA,AES128-GCM-SHA256,AES256-GCM-SHA384,AES128-SHA,AES256-SHA"

	firefoxCiphers = "TLS_AES_128_GCM_SHA256,TLS_CHACHA20_POLY1305_SHA256,TLS_AES_256_GCM_SHA384," +
		"ECDHE-ECDSA-AES128-GCM-SHA256,ECDHE-RSA-AES128-GCM-SHA256,ECDHE-ECDSA-CHACHA20-POLY1305," +
		"ECDHE-RSA-CHACHA20-POLY1305,ECDHE-ECDSA-AES256-GCM-SHA384,ECDHE-RSA-AES256-GCM-SHA384," +
		"ECDHE-ECDSA-AES256-SHA,ECDHE-ECDSA-AES128-SHA,ECDHE-RSA-AES128-SHA,ECDHE-RSA-AES256-SHA," +
		"AES128-GCM-SHA256,AES256-GCM-SHA384,AES128-SHA,AES256-SHA"

	firefoxSigHashes = "ecdsa_secp256r1_sha256,ecdsa_secp384r1_sha384,ecdsa_secp521r1_sha512," +
		"rsa_pss_rsae_sha256,rsa_pss_rsae_sha384,rsa_pss_rsae_sha512,rsa_pkcs1_sha256,rsa_pkcs1_sha384," +
		"rsa_pkcs1_sha512,ecdsa_sha1,rsa_pkcs1_sha1"

	safariCiphers = "TLS_AES_128_GCM_SHA256,TLS_AES_256_GCM_SHA384,TLS_CHACHA20_POLY1305_SHA256," +
		"ECDHE-ECDSA-AES256-GCM-SHA384,ECDHE-ECDSA-AES128-GCM-SHA256,ECDHE-ECDSA-CHACHA20-POLY1305," +
		"ECDHE-RSA-AES256-GCM-SHA384,ECDHE-RSA-AES128-GCM-SHA256,ECDHE-RSA-CHACHA20-POLY1305," +
		"ECDHE-ECDSA-AES256-SHA,ECDHE-ECDSA-AES128-SHA,ECDHE-RSA-AES256-SHA,ECDHE-RSA-AES128-SHA," +
		"AES256-GCM-SHA384,AES128-GCM-SHA256,AES256-SHA,AES128-SHA"

	safariSigHashes = "ecdsa_secp256r1_sha256,rsa_pss_rsae_sha256,rsa_pkcs1_sha256,ecdsa_secp384r1_sha384," +
		"rsa_pss_rsae_sha384,rsa_pss_rsae_sha384,rsa_pkcs1_sha384,rsa_pss_rsae_sha512,rsa_pkcs1_sha512,rsa_pkcs1_sha1"

	chromeAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp," +
		"image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
)

// chromiumArgs returns the handshake flags shared by Chrome and Edge.
// Versions from 124 on send the post-quantum key share.
func chromiumArgs(major int) []string {
	curves := "X25519:P-256:P-384"
	if major >= 124 {
		curves = "X25519MLKEM768:X25519:P-256:P-384"
	}
	args := []string{
		"--ciphers", chromeCiphers,
		"--curves", curves,
		"--http2",
		"--http2-settings", "1:65536;2:0;4:6291456;6:262144",
		"--http2-window-update", "15663105",
		"--http2-stream-weight", "256",
		"--http2-stream-exclusive", "1",
		"--compressed",
		"--tlsv1.2",
		"--alps",
		"--cert-compression", "brotli",
		"--tls-grease",
	}
	if major >= 110 {
		args = append(args, "--tls-permute-extensions")
	}
	if major >= 119 {
		args = append(args, "--ech", "grease")
	}
	if major >= 131 {
		args = append(args, "--tls-use-new-alps-codepoint", "--tls-signed-cert-timestamps")
	}
	return args
}

func chromeHeaders(major string) [][2]string {
	return [][2]string{
		{"sec-ch-ua", `"Google Chrome";v="` + major + `", "Chromium";v="` + major + `", "Not_A Brand";v="24"`},
		{"sec-ch-ua-mobile", "?0"},
		{"sec-ch-ua-platform", `"Windows"`},
		{"Upgrade-Insecure-Requests", "1"},
		{"User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/" + major + ".0.0.0 Safari/537.36"},
		{"Accept", chromeAccept},
		{"Sec-Fetch-Site", "none"},
		{"Sec-Fetch-Mode", "navigate"},
		{"Sec-Fetch-User", "?1"},
		{"Sec-Fetch-Dest", "document"},
		{"Accept-Encoding", "gzip, deflate, br, zstd"},
		{"Accept-Language", "en-US,en;q=0.9"},
	}
}

func edgeHeaders(major string) [][2]string {
	return [][2]string{
		{"sec-ch-ua", `" Not A;Brand";v="99", "Chromium";v="` + major + `", "Microsoft Edge";v="` + major + `"`},
		{"sec-ch-ua-mobile", "?0"},
		{"sec-ch-ua-platform", `"Windows"`},
		{"Upgrade-Insecure-Requests", "1"},
		{"User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/" + major + ".0.4951.64 Safari/537.36 Edg/" + major + ".0.1210.47"},
		{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9"},
		{"Sec-Fetch-Site", "none"},
		{"Sec-Fetch-Mode", "navigate"},
		{"Sec-Fetch-User", "?1"},
		{"Sec-Fetch-Dest", "document"},
		{"Accept-Encoding", "gzip, deflate, br"},
		{"Accept-Language", "en-US,en;q=0.9"},
	}
}

func firefoxArgs() []string {
	return []string{
		"--ciphers", firefoxCiphers,
		"--curves", "X25519MLKEM768:X25519:P-256:P-384:P-521:ffdhe2048:ffdhe3072",
		"--signature-hashes", firefoxSigHashes,
		"--http2",
		"--http2-settings", "1:65536;2:0;4:131072;5:16384",
		"--http2-window-update", "12517377",
		"--http2-pseudo-headers-order", "mpas",
		"--compressed",
		"--ech", "grease",
		"--tls-extension-order", "0-23-65281-10-11-35-16-5-34-18-51-43-13-45-28-27-65037",
		"--tls-delegated-credentials", "ecdsa_secp256r1_sha256:ecdsa_secp384r1_sha384:ecdsa_secp521r1_sha512:ecdsa_sha1",
		"--cert-compression", "zlib,brotli,zstd",
		"--tls-record-size-limit", "4001",
		"--tls-key-shares-limit", "3",
	}
}

func firefoxHeaders(major string) [][2]string {
	return [][2]string{
		{"User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:" + major + ".0) Gecko/20100101 Firefox/" + major + ".0"},
		{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		{"Accept-Language", "en-US,en;q=0.5"},
		{"Accept-Encoding", "gzip, deflate, br, zstd"},
		{"Upgrade-Insecure-Requests", "1"},
		{"Sec-Fetch-Dest", "document"},
		{"Sec-Fetch-Mode", "navigate"},
		{"Sec-Fetch-Site", "none"},
		{"Sec-Fetch-User", "?1"},
		{"Priority", "u=0, i"},
		{"te", "trailers"},
	}
}

func safariArgs(version string) []string {
	settings := "2:0;4:4194304;3:100"
	window := "10485760"
	if version != "15.5" {
		settings = "2:0;3:100;4:2097152;9:1"
		window = "10420225"
	}
	return []string{
		"--ciphers", safariCiphers,
		"--curves", "X25519:P-256:P-384:P-521",
		"--signature-hashes", safariSigHashes,
		"--http2",
		"--http2-settings", settings,
		"--http2-pseudo-headers-order", "msap",
		"--http2-window-update", window,
		"--http2-stream-weight", "256",
		"--http2-stream-exclusive", "0",
		"--compressed",
		"--tls-grease",
		"--no-tls-session-ticket",
		"--cert-compression", "zlib",
		"--tlsv1.0",
		"--no-npn",
	}
}

func safariHeaders(version string) [][2]string {
	return [][2]string{
		{"Sec-Fetch-Dest", "document"},
		{"User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/" + version + " Safari/605.1.15"},
		{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		{"Sec-Fetch-Site", "none"},
		{"Sec-Fetch-Mode", "navigate"},
		{"Accept-Language", "en-US,en;q=0.9"},
		{"Priority", "u=0, i"},
		{"Accept-Encoding", "gzip, deflate, br"},
	}
}

func chrome(major int, version string) *Profile {
	return &Profile{
		Browser: Chrome,
		Version: version,
		Comment: "Chrome " + version + " on Windows 10 x64 en-US",
		Args:    chromiumArgs(major),
		Headers: chromeHeaders(version),
	}
}

// profiles is ordered oldest to newest within each browser.
var profiles = []*Profile{
	chrome(99, "99"),
	chrome(100, "100"),
	chrome(101, "101"),
	chrome(104, "104"),
	chrome(107, "107"),
	chrome(110, "110"),
	chrome(116, "116"),
	chrome(119, "119"),
	chrome(120, "120"),
	chrome(123, "123"),
	chrome(124, "124"),
	chrome(131, "131"),
	{
		Browser: Edge,
		Version: "99",
		Comment: "Edge 99 on Windows 10 x64 en-US",
		Args:    chromiumArgs(99),
		Headers: edgeHeaders("99"),
	},
	{
		Browser: Edge,
		Version: "101",
		Comment: "Edge 101 on Windows 10 x64 en-US",
		Args:    chromiumArgs(101),
		Headers: edgeHeaders("101"),
	},
	{
		Browser: Firefox,
		Version: "133",
		Comment: "Firefox 133 on Windows 10 x64 en-US",
		Args:    firefoxArgs(),
		Headers: firefoxHeaders("133"),
	},
	{
		Browser: Firefox,
		Version: "135",
		Comment: "Firefox 135 on Windows 10 x64 en-US",
		Args:    firefoxArgs(),
		Headers: firefoxHeaders("135"),
	},
	{
		Browser: Safari,
		Version: "15.5",
		Comment: "Safari 15.5 on macOS Monterey",
		Args:    safariArgs("15.5"),
		Headers: safariHeaders("15.5"),
	},
	{
		Browser: Safari,
		Version: "17.0",
		Comment: "Safari 17.0 on macOS Sonoma",
		Args:    safariArgs("17.0"),
		Headers: safariHeaders("17.0"),
	},
	{
		Browser: Safari,
		Version: "18.0",
		Comment: "Safari 18.0 on macOS Sequoia",
		Args:    safariArgs("18.0"),
		Headers: safariHeaders("18.0"),
	},
}
