package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/persibuloi/kamenic/api/controllers"
	blogcontrollers "github.com/persibuloi/kamenic/api/controllers/blog"
	cartcontrollers "github.com/persibuloi/kamenic/api/controllers/cart"
	"github.com/persibuloi/kamenic/api/middleware"
	"github.com/persibuloi/kamenic/internal/blog"
	"github.com/persibuloi/kamenic/internal/cart"
	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/chatbot"
	"github.com/persibuloi/kamenic/internal/comments"
	"github.com/persibuloi/kamenic/internal/contact"
	"github.com/persibuloi/kamenic/internal/favorites"
	"github.com/persibuloi/kamenic/internal/inquiries"
	"github.com/persibuloi/kamenic/internal/settings"
	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/config"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
	pkgredis "github.com/persibuloi/kamenic/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs directly: readiness,
// submission windows and idempotency records.
type RedisStore interface {
	controllers.Pinger
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the services mounted by NewRouter. Nil services answer with an
// internal error instead of panicking.
type Dependencies struct {
	Redis       RedisStore
	Stores      *store.Group
	Catalog     catalog.Service
	Cart        cart.Service
	Favorites   favorites.Service
	Blog        blog.Service
	Comments    comments.Service
	Contact     contact.Service
	Site        settings.SiteService
	StoreConfig controllers.PolicySource
	Inquiries   inquiries.Service
	Chat        chatbot.Service

	Registry       *prometheus.Registry
	HTTPMetrics    *metrics.HTTPMetrics
	ChatbotMetrics *metrics.ChatbotMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var limiterStore interface {
		FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	}
	var idemStore pkgredis.IdempotencyStore
	var pinger controllers.Pinger
	if deps.Redis != nil {
		limiterStore, idemStore, pinger = deps.Redis, deps.Redis, deps.Redis
	}

	submissions := func(name string) func(http.Handler) http.Handler {
		policy := middleware.NewSubmissionPolicy(
			name,
			cfg.RateLimit.SubmissionWindow,
			cfg.RateLimit.SubmissionIPLimit,
			cfg.RateLimit.SubmissionEmailLimit,
		)
		return middleware.SubmissionRateLimit(policy, limiterStore, logg)
	}
	refreshLimit := middleware.SubmissionRateLimit(
		middleware.NewSubmissionPolicy("refresh", cfg.RateLimit.SubmissionWindow, cfg.RateLimit.SubmissionIPLimit, 0),
		limiterStore, logg,
	)
	chatLimiter := middleware.NewChatLimiter(cfg.Chatbot.RatePerMinute, cfg.Chatbot.RateBurst)

	var reporter controllers.StoreReporter
	if deps.Stores != nil {
		reporter = deps.Stores
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pinger, reporter))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionOptions{
			CookieName: cfg.Session.CookieName,
			MaxAge:     cfg.Session.LedgerTTL,
			Secure:     cfg.Session.SecureOnly,
		}, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/navigation", controllers.NavigationResolve())

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(deps.Catalog, logg))
			r.Get("/products/{productId}", controllers.CatalogProduct(deps.Catalog, logg))
			r.Get("/facets", controllers.CatalogFacets(deps.Catalog, logg))
			r.Get("/featured", controllers.CatalogFeatured(deps.Catalog, logg))
			r.Get("/highlights", controllers.CatalogHighlights(deps.Catalog, logg))
			if deps.Catalog != nil {
				r.Get("/status", controllers.StoreReport(deps.Catalog))
				r.With(refreshLimit).Post("/refresh", controllers.StoreRefresh(deps.Catalog, logg))
			}
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{productId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(deps.Favorites, logg))
			r.Post("/", controllers.FavoritesAdd(deps.Favorites, logg))
			r.Delete("/", controllers.FavoritesClear(deps.Favorites, logg))
			r.Get("/{productId}", controllers.FavoritesContains(deps.Favorites, logg))
			r.Post("/{productId}/toggle", controllers.FavoritesToggle(deps.Favorites, logg))
			r.Delete("/{productId}", controllers.FavoritesRemove(deps.Favorites, logg))
		})

		r.Route("/blog", func(r chi.Router) {
			r.Get("/posts", blogcontrollers.PostList(deps.Blog, logg))
			r.Get("/posts/{postRef}", blogcontrollers.PostDetail(deps.Blog, logg))
			r.Get("/posts/{postRef}/comments", blogcontrollers.CommentList(deps.Blog, deps.Comments, logg))
			r.With(submissions("comments")).Post("/posts/{postRef}/comments", blogcontrollers.CommentCreate(deps.Blog, deps.Comments, logg))
			r.Get("/categories", blogcontrollers.Categories(deps.Blog, logg))
			r.Get("/featured", blogcontrollers.Featured(deps.Blog, logg))
			if deps.Blog != nil {
				r.Get("/status", controllers.StoreReport(deps.Blog))
			}
		})

		r.Get("/contact", controllers.ContactInfo(deps.Contact, logg))
		r.With(submissions("contact")).Post("/contact/messages", controllers.ContactMessageCreate(deps.Inquiries, logg))
		r.With(submissions("leads")).Post("/distributors/leads", controllers.DistributorLeadCreate(deps.Inquiries, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/site", controllers.SiteSettings(deps.Site, logg))
			r.Get("/store", controllers.StorePolicy(deps.StoreConfig, logg))
		})

		r.Route("/chat/messages", func(r chi.Router) {
			r.With(middleware.ChatRateLimit(chatLimiter, deps.ChatbotMetrics, logg)).Post("/", controllers.ChatSend(deps.Chat, logg))
			r.Get("/", controllers.ChatHistory(deps.Chat, logg))
			r.Delete("/", controllers.ChatClear(deps.Chat, logg))
		})

		if deps.Stores != nil {
			r.Route("/stores", func(r chi.Router) {
				r.Get("/status", controllers.StoresStatus(deps.Stores))
				r.With(refreshLimit).Post("/refresh", controllers.StoresRefresh(deps.Stores, logg))
			})
		}
	})

	return r
}
