package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/curriculum"
	"github.com/trezcool/launchpad/core/entitlement"
	"github.com/trezcool/launchpad/core/readiness"
)

type (
	entitlementsQuery struct {
		OrgOwnerID string `query:"org_owner_id" validate:"omitempty,uuid"`
	}

	readinessQuery struct {
		OrganizationID string `query:"organization_id" validate:"omitempty,uuid"`
	}

	curriculumResponse struct {
		Entitlements entitlement.Snapshot `json:"entitlements"`
		Curriculum   curriculum.Overview  `json:"curriculum"`
	}
)

type meApi struct {
	entitlementSvc entitlement.ServiceInterface
	curriculumSvc  curriculum.ServiceInterface
	readinessSvc   readiness.ServiceInterface
	validate       *validator.Validate
	jwtConf        middleware.JWTConfig
}

func registerMeAPI(g *echo.Group, jwt echo.MiddlewareFunc, jwtConf middleware.JWTConfig, deps ServerDeps) {
	api := meApi{
		entitlementSvc: deps.EntitlementSvc,
		curriculumSvc:  deps.CurriculumSvc,
		readinessSvc:   deps.ReadinessSvc,
		validate:       deps.Validate,
		jwtConf:        jwtConf,
	}

	mg := g.Group("/me", jwt, learnerMiddleware(jwtConf))
	mg.GET("/entitlements", api.entitlements)
	mg.GET("/curriculum", api.curriculum)
	mg.GET("/readiness", api.readiness)
}

// Handlers

func (api *meApi) entitlements(ctx echo.Context) error {
	claims, err := getContextClaims(ctx, api.jwtConf)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	query := entitlementsQuery{OrgOwnerID: core.CleanString(ctx.QueryParam("org_owner_id"))}
	if err = api.validate.Struct(query); err != nil {
		return err
	}
	// learners may only look at their own organization owner's subscription
	if query.OrgOwnerID != "" && !claims.IsAdmin &&
		query.OrgOwnerID != claims.ownerID() && query.OrgOwnerID != claims.userID() {
		return errHttpForbidden
	}

	snap, err := api.resolve(ctx, claims, query.OrgOwnerID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *meApi) curriculum(ctx echo.Context) error {
	claims, err := getContextClaims(ctx, api.jwtConf)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	snap, err := api.resolve(ctx, claims, "")
	if err != nil {
		return err
	}
	overview, err := api.curriculumSvc.Overview(ctx.Request().Context(), claims.userID())
	if err != nil {
		return errors.Wrap(err, "building curriculum overview")
	}
	return ctx.JSON(http.StatusOK, curriculumResponse{Entitlements: snap, Curriculum: overview})
}

func (api *meApi) readiness(ctx echo.Context) error {
	claims, err := getContextClaims(ctx, api.jwtConf)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	query := readinessQuery{OrganizationID: core.CleanString(ctx.QueryParam("organization_id"))}
	if err = api.validate.Struct(query); err != nil {
		return err
	}
	orgID := core.CleanString(claims.OrganizationID)
	if query.OrganizationID != "" && query.OrganizationID != orgID {
		if !claims.IsAdmin {
			return errHttpForbidden
		}
		orgID = query.OrganizationID
	}

	snap, err := api.readinessSvc.Compute(ctx.Request().Context(), readiness.Request{
		UserID:         claims.userID(),
		OrgOwnerID:     claims.ownerID(),
		OrganizationID: orgID,
	})
	if err != nil {
		return errors.Wrap(err, "computing readiness")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *meApi) resolve(ctx echo.Context, claims Claims, ownerID string) (entitlement.Snapshot, error) {
	if ownerID == "" {
		ownerID = claims.ownerID()
	}
	snap, err := api.entitlementSvc.Resolve(ctx.Request().Context(), entitlement.Request{
		UserID:     claims.userID(),
		OrgOwnerID: ownerID,
		IsAdmin:    claims.IsAdmin,
	})
	return snap, errors.Wrap(err, "resolving entitlements")
}
