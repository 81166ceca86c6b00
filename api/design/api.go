package design

import (
	. "goa.design/goa/v3/dsl"
)

var _ = API("onevdr", func() {
	Title("OneVDR API")
	Description("Backend API for OneVDR - investor pipeline tracking with live snapshots and AI insights")
	Version("1.0.0")
	Server("api", func() {
		Host("localhost", func() {
			URI("http://localhost:8000")
		})
	})
})

// Common error types
var Unauthorized = Type("Unauthorized", func() {
	Description("Unauthorized access")
	Attribute("message", String, "Error message", func() {
		Example("invalid or expired token")
	})
})

var Forbidden = Type("Forbidden", func() {
	Description("Authenticated but not allowed")
	Attribute("message", String, "Error message", func() {
		Example("admin privileges required")
	})
})

var NotFound = Type("NotFound", func() {
	Description("Resource not found")
	Attribute("message", String, "Error message", func() {
		Example("investor not found")
	})
})

var BadRequest = Type("BadRequest", func() {
	Description("Bad request")
	Attribute("message", String, "Error message", func() {
		Example("invalid request body")
	})
})

// Health check
var _ = Service("health", func() {
	Description("Health check service")
	Method("check", func() {
		Result(HealthResult)
		HTTP(func() {
			GET("/health")
			Response(StatusOK)
		})
	})
})

var HealthResult = ResultType("HealthResult", func() {
	Attribute("status", String, "Service status", func() {
		Example("healthy")
	})
	Attribute("service", String, "Service name", func() {
		Example("OneVDR API")
	})
	Attribute("database", String, "Database reachability", func() {
		Example("up")
	})
})

// Authentication service
var _ = Service("auth", func() {
	Description("Authentication and user administration service")
	Error("unauthorized", Unauthorized)
	Error("forbidden", Forbidden)
	Error("not_found", NotFound)
	Error("bad_request", BadRequest)

	Method("login", func() {
		Description("Authenticate user and return JWT token")
		Payload(LoginPayload)
		Result(LoginResult)
		Error("unauthorized")
		HTTP(func() {
			POST("/api/v1/auth/login")
			Response(StatusOK)
			Response("unauthorized", StatusUnauthorized)
		})
	})

	Method("logout", func() {
		Description("Logout user")
		Security(JWTAuth)
		Payload(TokenPayload)
		Result(MessageResult)
		HTTP(func() {
			POST("/api/v1/auth/logout")
			Response(StatusOK)
		})
	})

	Method("me", func() {
		Description("Get current user information")
		Security(JWTAuth)
		Payload(TokenPayload)
		Result(UserResult)
		Error("unauthorized")
		HTTP(func() {
			GET("/api/v1/auth/me")
			Response(StatusOK)
			Response("unauthorized", StatusUnauthorized)
		})
	})

	Method("create_user", func() {
		Description("Create a new user (Admin only)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(CreateUserPayload)
		Result(UserResult)
		Error("bad_request")
		Error("forbidden")
		HTTP(func() {
			POST("/api/v1/auth/users")
			Response(StatusCreated)
			Response("bad_request", StatusBadRequest)
			Response("forbidden", StatusForbidden)
		})
	})

	Method("list_users", func() {
		Description("List all users (Admin only)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(ListUsersPayload)
		Result(ArrayOf(UserResult))
		Error("forbidden")
		HTTP(func() {
			GET("/api/v1/auth/users")
			Param("skip")
			Param("limit")
			Response(StatusOK)
			Response("forbidden", StatusForbidden)
		})
	})

	Method("get_user", func() {
		Description("Get user by ID (Admin only)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(GetUserPayload)
		Result(UserResult)
		Error("not_found")
		Error("forbidden")
		HTTP(func() {
			GET("/api/v1/auth/users/{id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("forbidden", StatusForbidden)
		})
	})

	Method("update_user", func() {
		Description("Update user (Admin only)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(UpdateUserPayload)
		Result(UserResult)
		Error("not_found")
		Error("forbidden")
		HTTP(func() {
			PUT("/api/v1/auth/users/{id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("forbidden", StatusForbidden)
		})
	})

	Method("delete_user", func() {
		Description("Delete user (Admin only, self-deletion rejected)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(GetUserPayload)
		Result(MessageResult)
		Error("not_found")
		Error("bad_request")
		Error("forbidden")
		HTTP(func() {
			DELETE("/api/v1/auth/users/{id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
			Response("forbidden", StatusForbidden)
		})
	})
})

// JWT Security
var JWTAuth = JWTSecurity("jwt", func() {
	Description("JWT authentication")
	Scope("admin", "Admin access")
})

// Authentication payloads and results
var LoginPayload = Type("LoginPayload", func() {
	Attribute("username", String, "Username", func() {
		MinLength(1)
		Example("admin")
	})
	Attribute("password", String, "Password", func() {
		MinLength(1)
		Example("password")
	})
	Required("username", "password")
})

var LoginResult = ResultType("LoginResult", func() {
	Attribute("access_token", String, "JWT access token")
	Attribute("token_type", String, "Token type", func() {
		Default("bearer")
		Example("bearer")
	})
	Required("access_token", "token_type")
})

var TokenPayload = Type("TokenPayload", func() {
	Token("token", String, "JWT token")
})

var MessageResult = ResultType("MessageResult", func() {
	Attribute("message", String, "Confirmation message", func() {
		Example("successfully logged out")
	})
	Required("message")
})

var UserResult = ResultType("UserResult", func() {
	Attribute("id", Int, "User ID")
	Attribute("username", String, "Username")
	Attribute("email", String, "Email address")
	Attribute("full_name", String, "Full name")
	Attribute("is_active", Boolean, "Is user active")
	Attribute("is_admin", Boolean, "Is user admin")
	Attribute("created_at", String, "Creation timestamp")
	Attribute("updated_at", String, "Update timestamp")
	Attribute("last_login", String, "Last login timestamp")
	Required("id", "username", "email", "is_active", "is_admin", "created_at")
})

var CreateUserPayload = Type("CreateUserPayload", func() {
	Token("token", String, "JWT token")
	Attribute("username", String, "Username", func() {
		MinLength(1)
		Example("newuser")
	})
	Attribute("email", String, "Email address", func() {
		Format(FormatEmail)
		Example("user@example.com")
	})
	Attribute("password", String, "Password", func() {
		MinLength(6)
		Example("password123")
	})
	Attribute("full_name", String, "Full name")
	Attribute("is_active", Boolean, "Is user active", func() {
		Default(true)
	})
	Attribute("is_admin", Boolean, "Is user admin", func() {
		Default(false)
	})
	Required("username", "email", "password")
})

var ListUsersPayload = Type("ListUsersPayload", func() {
	Token("token", String, "JWT token")
	Attribute("skip", Int, "Skip records", func() {
		Default(0)
		Minimum(0)
	})
	Attribute("limit", Int, "Limit records", func() {
		Default(100)
		Minimum(1)
		Maximum(500)
	})
})

var GetUserPayload = Type("GetUserPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", Int, "User ID")
	Required("id")
})

var UpdateUserPayload = Type("UpdateUserPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", Int, "User ID")
	Attribute("username", String, "Username")
	Attribute("email", String, "Email address")
	Attribute("full_name", String, "Full name")
	Attribute("is_active", Boolean, "Is user active")
	Attribute("is_admin", Boolean, "Is user admin")
	Attribute("password", String, "Password")
	Required("id")
})

// Investor pipeline service
var _ = Service("investor", func() {
	Description("Investor pipeline service. Records are scoped to their owner; every committed write publishes the owner's refreshed list on the feed.")
	Error("unauthorized", Unauthorized)
	Error("not_found", NotFound)
	Error("bad_request", BadRequest)

	Method("list", func() {
		Description("List the caller's investors ordered by creation time")
		Security(JWTAuth)
		Payload(TokenPayload)
		Result(ArrayOf(InvestorResult))
		Error("unauthorized")
		HTTP(func() {
			GET("/api/v1/investors")
			Response(StatusOK)
			Response("unauthorized", StatusUnauthorized)
		})
	})

	Method("create", func() {
		Description("Create a new investor record at the first pipeline stage")
		Security(JWTAuth)
		Payload(CreateInvestorPayload)
		Result(InvestorResult)
		Error("bad_request")
		HTTP(func() {
			POST("/api/v1/investors")
			Response(StatusCreated)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("get", func() {
		Description("Get one investor owned by the caller")
		Security(JWTAuth)
		Payload(InvestorIDPayload)
		Result(InvestorResult)
		Error("not_found")
		HTTP(func() {
			GET("/api/v1/investors/{id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
		})
	})

	Method("update", func() {
		Description("Replace an investor's editable fields with the submitted draft; omitted optional fields clear their columns")
		Security(JWTAuth)
		Payload(UpdateInvestorPayload)
		Result(InvestorResult)
		Error("not_found")
		Error("bad_request")
		HTTP(func() {
			PUT("/api/v1/investors/{id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("delete", func() {
		Description("Delete an investor owned by the caller")
		Security(JWTAuth)
		Payload(InvestorIDPayload)
		Result(MessageResult)
		Error("not_found")
		HTTP(func() {
			DELETE("/api/v1/investors/{id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
		})
	})

	Method("advance", func() {
		Description("Move an investor one stage forward; rejected at the final stage")
		Security(JWTAuth)
		Payload(InvestorIDPayload)
		Result(InvestorResult)
		Error("not_found")
		Error("bad_request")
		HTTP(func() {
			POST("/api/v1/investors/{id}/advance")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("retreat", func() {
		Description("Move an investor one stage back; rejected at the first stage")
		Security(JWTAuth)
		Payload(InvestorIDPayload)
		Result(InvestorResult)
		Error("not_found")
		Error("bad_request")
		HTTP(func() {
			POST("/api/v1/investors/{id}/retreat")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("set_status", func() {
		Description("Set an investor's status to active, paused or closed")
		Security(JWTAuth)
		Payload(SetStatusPayload)
		Result(InvestorResult)
		Error("not_found")
		Error("bad_request")
		HTTP(func() {
			PATCH("/api/v1/investors/{id}/status")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("add_comment", func() {
		Description("Append a comment to an investor's timeline; whitespace-only text is rejected")
		Security(JWTAuth)
		Payload(AddCommentPayload)
		Result(InvestorResult)
		Error("not_found")
		Error("bad_request")
		HTTP(func() {
			POST("/api/v1/investors/{id}/comments")
			Response(StatusCreated)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("update_comment", func() {
		Description("Rewrite the text of an existing comment")
		Security(JWTAuth)
		Payload(UpdateCommentPayload)
		Result(InvestorResult)
		Error("not_found")
		Error("bad_request")
		HTTP(func() {
			PUT("/api/v1/investors/{id}/comments/{comment_id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("delete_comment", func() {
		Description("Remove a comment from an investor's timeline")
		Security(JWTAuth)
		Payload(CommentIDPayload)
		Result(InvestorResult)
		Error("not_found")
		HTTP(func() {
			DELETE("/api/v1/investors/{id}/comments/{comment_id}")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
		})
	})
})

var CommentResult = ResultType("CommentResult", func() {
	Attribute("id", Int64, "Comment ID (unix milliseconds at creation)")
	Attribute("text", String, "Comment text")
	Attribute("created_at", String, "Creation timestamp")
	Required("id", "text", "created_at")
})

var InvestorResult = ResultType("InvestorResult", func() {
	Attribute("id", String, "Investor ID (UUID)")
	Attribute("name", String, "Investor name")
	Attribute("company", String, "Company or fund name")
	Attribute("email", String, "Email address")
	Attribute("phone", String, "Phone number")
	Attribute("website", String, "Website URL")
	Attribute("current_step", Int, "Pipeline stage index (0 = Initial Contact, 6 = Closing)")
	Attribute("status", String, "Status (active, paused, closed)")
	Attribute("importance", String, "Importance (low, medium, high)")
	Attribute("investment_amount", String, "Expected investment amount", func() {
		Example("500000.00")
	})
	Attribute("fund_size", String, "Fund size", func() {
		Example("25000000.00")
	})
	Attribute("notes", String, "Free-form notes")
	Attribute("comments", ArrayOf(CommentResult), "Timeline comments")
	Attribute("ai_summary", String, "Generated relationship summary")
	Attribute("fit_score", Int, "Generated fit score (0-100)")
	Attribute("insight", String, "Generated insight text")
	Attribute("portfolio_focus", ArrayOf(String), "Generated portfolio focus areas")
	Attribute("likelihood", Int, "Generated investment likelihood (0-100)")
	Attribute("suggested_actions", ArrayOf(String), "Generated next actions")
	Attribute("created_at", String, "Creation timestamp")
	Attribute("updated_at", String, "Update timestamp")
	Required("id", "name", "current_step", "status", "importance", "comments", "created_at", "updated_at")
})

var CreateInvestorPayload = Type("CreateInvestorPayload", func() {
	Token("token", String, "JWT token")
	Attribute("name", String, "Investor name", func() {
		MinLength(1)
		Example("Jane Capital")
	})
	Attribute("company", String, "Company or fund name")
	Attribute("email", String, "Email address")
	Attribute("phone", String, "Phone number")
	Attribute("website", String, "Website URL")
	Attribute("investment_amount", String, "Expected investment amount")
	Attribute("fund_size", String, "Fund size")
	Attribute("importance", String, "Importance (low, medium, high)", func() {
		Default("medium")
	})
	Attribute("notes", String, "Free-form notes")
	Attribute("ai_summary", String, "Relationship summary")
	Required("name")
})

var InvestorIDPayload = Type("InvestorIDPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "Investor ID")
	Required("id")
})

var UpdateInvestorPayload = Type("UpdateInvestorPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "Investor ID")
	Attribute("name", String, "Investor name", func() {
		MinLength(1)
	})
	Attribute("company", String, "Company or fund name")
	Attribute("email", String, "Email address")
	Attribute("phone", String, "Phone number")
	Attribute("website", String, "Website URL")
	Attribute("investment_amount", String, "Expected investment amount")
	Attribute("fund_size", String, "Fund size")
	Attribute("importance", String, "Importance (low, medium, high)")
	Attribute("notes", String, "Free-form notes")
	Attribute("ai_summary", String, "Relationship summary")
	Required("id", "name", "importance")
})

var SetStatusPayload = Type("SetStatusPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "Investor ID")
	Attribute("status", String, "New status", func() {
		Enum("active", "paused", "closed")
	})
	Required("id", "status")
})

var AddCommentPayload = Type("AddCommentPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "Investor ID")
	Attribute("text", String, "Comment text", func() {
		MinLength(1)
	})
	Required("id", "text")
})

var UpdateCommentPayload = Type("UpdateCommentPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "Investor ID")
	Attribute("comment_id", Int64, "Comment ID")
	Attribute("text", String, "Comment text", func() {
		MinLength(1)
	})
	Required("id", "comment_id", "text")
})

var CommentIDPayload = Type("CommentIDPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "Investor ID")
	Attribute("comment_id", Int64, "Comment ID")
	Required("id", "comment_id")
})

// Live feed service
var _ = Service("feed", func() {
	Description("Server-sent events feed. Each committed change to the caller's collection emits a full snapshot of the refreshed list; clients replace their local list wholesale.")
	Error("unauthorized", Unauthorized)

	Method("stream", func() {
		Description("Subscribe to snapshot events for the caller's investor list. Emits an initial snapshot on connect, then one per committed write, with heartbeat comments between events.")
		Security(JWTAuth)
		Payload(TokenPayload)
		Error("unauthorized")
		HTTP(func() {
			GET("/api/v1/investors/feed")
			SkipResponseBodyEncodeDecode()
			Response(StatusOK, func() {
				ContentType("text/event-stream")
			})
			Response("unauthorized", StatusUnauthorized)
		})
	})
})

// Data room service
var _ = Service("dataroom", func() {
	Description("Read-only data room activity statistics")
	Error("unauthorized", Unauthorized)
	Error("not_found", NotFound)

	Method("stats", func() {
		Description("Get the activity roll-up for an investor's data room; a missing row reads as zero activity")
		Security(JWTAuth)
		Payload(InvestorIDPayload)
		Result(DataRoomStatsResult)
		Error("not_found")
		HTTP(func() {
			GET("/api/v1/investors/{id}/data-room")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
		})
	})
})

var DataRoomStatsResult = ResultType("DataRoomStatsResult", func() {
	Attribute("investor_id", String, "Investor ID")
	Attribute("last_accessed", String, "Last access timestamp")
	Attribute("documents_viewed", Int, "Documents viewed")
	Attribute("time_spent_seconds", Int, "Total time spent in seconds")
	Attribute("updated_at", String, "Update timestamp")
	Required("investor_id", "documents_viewed", "time_spent_seconds")
})

// Insights service
var _ = Service("insights", func() {
	Description("AI insight generation over the caller's pipeline. Deployments without a configured model fail with bad request.")
	Error("unauthorized", Unauthorized)
	Error("not_found", NotFound)
	Error("bad_request", BadRequest)

	Method("investor", func() {
		Description("Generate fit score and insight for one investor; the result is persisted onto the record")
		Security(JWTAuth)
		Payload(InvestorIDPayload)
		Result(InvestorInsightsResult)
		Error("not_found")
		Error("bad_request")
		HTTP(func() {
			GET("/api/v1/investors/{id}/insights")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("bad_request", StatusBadRequest)
		})
	})

	Method("pipeline", func() {
		Description("Generate a summary of the caller's whole pipeline")
		Security(JWTAuth)
		Payload(TokenPayload)
		Result(PipelineSummaryResult)
		Error("bad_request")
		HTTP(func() {
			GET("/api/v1/investors/insights")
			Response(StatusOK)
			Response("bad_request", StatusBadRequest)
		})
	})
})

var InvestorInsightsResult = ResultType("InvestorInsightsResult", func() {
	Attribute("fit_score", Int, "Fit score (0-100)", func() {
		Example(81)
	})
	Attribute("insight", String, "Insight text")
	Required("fit_score", "insight")
})

var PipelineSummaryResult = ResultType("PipelineSummaryResult", func() {
	Attribute("summary", String, "Pipeline summary")
	Attribute("top_prospects", ArrayOf(String), "Most promising investor names")
	Attribute("recommendations", ArrayOf(String), "Recommended next steps")
	Required("summary")
})
