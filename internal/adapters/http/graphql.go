package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	projectedPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProjectedPoint",
		Fields: graphql.Fields{
			"easting":  &graphql.Field{Type: graphql.Float},
			"northing": &graphql.Field{Type: graphql.Float},
			"zone":     &graphql.Field{Type: graphql.String},
			"epsg":     &graphql.Field{Type: graphql.Int},
		},
	})

	menuItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MenuItem",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"label":    &graphql.Field{Type: graphql.String},
			"widget":   &graphql.Field{Type: graphql.String},
			"min_role": &graphql.Field{Type: graphql.String},
		},
	})
	menuItemType.AddFieldConfig("children", &graphql.Field{Type: graphql.NewList(menuItemType)})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"username":   &graphql.Field{Type: graphql.String},
			"role":       &graphql.Field{Type: graphql.String},
			"expires_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"utm37n": &graphql.Field{
				Type:        projectedPointType,
				Description: "Project a WGS 84 coordinate onto UTM zone 37N",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					pt := deps.Projections.Project(lat, lon)
					if !pt.Finite() {
						return nil, domain.ErrProjectionUndefined
					}
					zone := deps.Projections.Zone()
					return ProjectionResponse{
						Easting:  pt.Easting,
						Northing: pt.Northing,
						Zone:     zone.Label(),
						EPSG:     zone.EPSG,
					}, nil
				},
			},
			"me": &graphql.Field{
				Type:        sessionType,
				Description: "The authenticated session, null when anonymous",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess := sessionFromCtx(p.Context)
					if sess == nil {
						return nil, nil
					}
					return sess, nil
				},
			},
			"menu": &graphql.Field{
				Type:        graphql.NewList(menuItemType),
				Description: "Dashboard menu filtered by the caller's role",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess := sessionFromCtx(p.Context)
					if sess == nil {
						return nil, errors.New("authentication required")
					}
					return deps.Menu.For(sess.Role), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
