package error

const (
	// 0 ~ 999: 成功類別
	SUCCESS = 0 // 200 OK

	// 40000 ~ 49999: 用戶請求錯誤 (400 系列)
	BAD_REQUEST_BODY    = 40000 // 400 - 無效的請求體
	BAD_REQUEST_PARAMS  = 40001 // 400 - 無效的請求參數
	BAD_REQUEST_HEADERS = 40002 // 400 - 無效的請求標頭
	VALIDATION_FAILED   = 40006 // 400 - 訊息內容不合法（空白且無附件）
	ATTACHMENT_REJECTED = 40007 // 400 - 附件全部被拒

	// 40100 ~ 40399: 驗證與權限錯誤 (401 403 系列)
	UNAUTHORIZED      = 40100 // 401 - 未授權
	INVALID_SESSION   = 40101 // 401 - 會話失效
	INVALID_SIGNATURE = 40102 // 401 - webhook 簽章錯誤
	FORBIDDEN         = 40301 // 403 - 禁止訪問

	// 40400 ~ 40499: 資源錯誤 (404 系列)
	NOT_FOUND              = 40400 // 404 - 資源未找到
	CONVERSATION_NOT_FOUND = 40401 // 404 - 對話不存在或不可見
	MESSAGE_NOT_FOUND      = 40402 // 404 - 訊息不存在
	USER_NOT_FOUND         = 40403 // 404 - 使用者不存在

	// 40900: 狀態衝突
	CONFLICT = 40900 // 409 - 狀態衝突

	// 42900 ~ 42999: 流量限制錯誤 (429 系列)
	RATE_LIMIT_EXCEEDED = 42900 // 429 - 速率限制超過

	// 50000 ~ 50199: 伺服器內部錯誤 (500 系列)
	INTERNAL_ERROR      = 50000 // 500 - 內部錯誤
	DATABASE_ERROR      = 50001 // 500 - 資料庫錯誤
	SERVICE_UNAVAILABLE = 50002 // 503 - 服務暫停 (維護模式)

	// 50200 ~ 50499: 外部請求錯誤 (502 504 系列)
	EXTERNAL_REQUEST_ERROR         = 50200 // 502 - 外部 API 請求錯誤
	EXTERNAL_RESPONSE_FORMAT_ERROR = 50201 // 502 - 外部 API 回應格式錯誤
	GATEWAY_TIMEOUT                = 50400 // 504 - 外部 API 超時
	UNSUPPORTED_VERSION            = 50401 // 505 - 不支援的 API 版本

	// 50300 ~ 50399: 暫時性錯誤，可重試 (503 系列)
	RECONCILE_PENDING    = 50300 // 503 - 身分對應尚未完成
	STORE_UNAVAILABLE    = 50301 // 503 - 資料庫暫時無法連線
	IDENTITY_UNAVAILABLE = 50302 // 503 - 身分提供者無法使用
)
