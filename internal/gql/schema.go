package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/eugenenazirov/realestate-crm/internal/agent"
	"github.com/eugenenazirov/realestate-crm/internal/appointment"
	"github.com/eugenenazirov/realestate-crm/internal/client"
	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/property"
	"github.com/eugenenazirov/realestate-crm/internal/store"
	"github.com/eugenenazirov/realestate-crm/internal/telemetry"
)

// Resolvers binds the schema to the entity services. A zero Resolvers is
// enough to build and print the schema; executing it needs every service.
type Resolvers struct {
	Agents       *agent.Service
	Clients      *client.Service
	Properties   *property.Service
	Appointments *appointment.Service
	Tracer       trace.Tracer
}

type objects struct {
	status      *graphql.Enum
	meta        *graphql.Object
	agent       *graphql.Object
	client      *graphql.Object
	property    *graphql.Object
	appointment *graphql.Object
}

// NewSchema builds the executable schema.
func NewSchema(r *Resolvers) (graphql.Schema, error) {
	if r.Tracer == nil {
		r.Tracer = tracenoop.NewTracerProvider().Tracer("")
	}
	o := r.objects()

	query := graphql.Fields{}
	mutation := graphql.Fields{}

	addEntity(r, query, mutation, entity[model.Agent, agent.CreateInput, agent.UpdateInput]{
		typeName: "Agent",
		plural:   "agents",
		object:   o.agent,
		meta:     o.meta,
		res:      r.Agents,
		create: graphql.InputObjectConfigFieldMap{
			"firstName": {Type: graphql.NewNonNull(graphql.String)},
			"lastName":  {Type: graphql.NewNonNull(graphql.String)},
			"email":     {Type: graphql.NewNonNull(graphql.String)},
			"phone":     {Type: graphql.String},
		},
		update: graphql.InputObjectConfigFieldMap{
			"firstName": {Type: graphql.String},
			"lastName":  {Type: graphql.String},
			"email":     {Type: graphql.String},
			"phone":     {Type: graphql.String},
		},
	})
	addEntity(r, query, mutation, entity[model.Client, client.CreateInput, client.UpdateInput]{
		typeName: "Client",
		plural:   "clients",
		object:   o.client,
		meta:     o.meta,
		res:      r.Clients,
		create: graphql.InputObjectConfigFieldMap{
			"firstName": {Type: graphql.NewNonNull(graphql.String)},
			"lastName":  {Type: graphql.NewNonNull(graphql.String)},
			"email":     {Type: graphql.String},
			"phone":     {Type: graphql.String},
			"agentId":   {Type: graphql.String},
		},
		update: graphql.InputObjectConfigFieldMap{
			"firstName": {Type: graphql.String},
			"lastName":  {Type: graphql.String},
			"email":     {Type: graphql.String},
			"phone":     {Type: graphql.String},
			"agentId":   {Type: graphql.String},
		},
	})
	addEntity(r, query, mutation, entity[model.Property, property.CreateInput, property.UpdateInput]{
		typeName: "Property",
		plural:   "properties",
		object:   o.property,
		meta:     o.meta,
		res:      r.Properties,
		create: graphql.InputObjectConfigFieldMap{
			"address":   {Type: graphql.NewNonNull(graphql.String)},
			"city":      {Type: graphql.NewNonNull(graphql.String)},
			"price":     {Type: graphql.Float},
			"bedrooms":  {Type: graphql.Int},
			"bathrooms": {Type: graphql.Int},
			"status":    {Type: o.status},
			"agentId":   {Type: graphql.String},
		},
		update: graphql.InputObjectConfigFieldMap{
			"address":   {Type: graphql.String},
			"city":      {Type: graphql.String},
			"price":     {Type: graphql.Float},
			"bedrooms":  {Type: graphql.Int},
			"bathrooms": {Type: graphql.Int},
			"status":    {Type: o.status},
			"agentId":   {Type: graphql.String},
		},
	})
	addEntity(r, query, mutation, entity[model.Appointment, appointment.CreateInput, appointment.UpdateInput]{
		typeName: "Appointment",
		plural:   "appointments",
		object:   o.appointment,
		meta:     o.meta,
		res:      r.Appointments,
		create: graphql.InputObjectConfigFieldMap{
			"date":       {Type: graphql.NewNonNull(graphql.DateTime)},
			"notes":      {Type: graphql.String},
			"clientId":   {Type: graphql.String},
			"propertyId": {Type: graphql.String},
			"agentId":    {Type: graphql.String},
		},
		update: graphql.InputObjectConfigFieldMap{
			"date":       {Type: graphql.DateTime},
			"notes":      {Type: graphql.String},
			"clientId":   {Type: graphql.String},
			"propertyId": {Type: graphql.String},
			"agentId":    {Type: graphql.String},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutation}),
	})
}

func (r *Resolvers) objects() *objects {
	o := &objects{}

	statusValues := graphql.EnumValueConfigMap{}
	for _, s := range model.PropertyStatuses() {
		statusValues[string(s)] = &graphql.EnumValueConfig{Value: s}
	}
	o.status = graphql.NewEnum(graphql.EnumConfig{Name: "PropertyStatus", Values: statusValues})

	o.meta = graphql.NewObject(graphql.ObjectConfig{
		Name: "MetaQueryPayload",
		Fields: graphql.Fields{
			"count": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	o.agent = graphql.NewObject(graphql.ObjectConfig{
		Name: "Agent",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return withTimestamps(graphql.Fields{
				"firstName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"lastName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"phone":     &graphql.Field{Type: graphql.String},
				"clients": relationList(o.client, func(ctx context.Context, a model.Agent, q store.Query) ([]model.Client, error) {
					return r.Agents.Clients(ctx, a.ID, q)
				}),
				"properties": relationList(o.property, func(ctx context.Context, a model.Agent, q store.Query) ([]model.Property, error) {
					return r.Agents.Properties(ctx, a.ID, q)
				}),
				"appointments": relationList(o.appointment, func(ctx context.Context, a model.Agent, q store.Query) ([]model.Appointment, error) {
					return r.Agents.Appointments(ctx, a.ID, q)
				}),
			})
		}),
	})

	o.client = graphql.NewObject(graphql.ObjectConfig{
		Name: "Client",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return withTimestamps(graphql.Fields{
				"firstName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"lastName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"email":     &graphql.Field{Type: graphql.String},
				"phone":     &graphql.Field{Type: graphql.String},
				"agent": relationOne(o.agent, func(ctx context.Context, c model.Client) (*model.Agent, error) {
					return r.Clients.Agent(ctx, c)
				}),
				"appointments": relationList(o.appointment, func(ctx context.Context, c model.Client, q store.Query) ([]model.Appointment, error) {
					return r.Clients.Appointments(ctx, c.ID, q)
				}),
			})
		}),
	})

	o.property = graphql.NewObject(graphql.ObjectConfig{
		Name: "Property",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return withTimestamps(graphql.Fields{
				"address":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"city":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"price":     &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
				"bedrooms":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"bathrooms": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"status":    &graphql.Field{Type: graphql.NewNonNull(o.status)},
				"agent": relationOne(o.agent, func(ctx context.Context, p model.Property) (*model.Agent, error) {
					return r.Properties.Agent(ctx, p)
				}),
				"appointments": relationList(o.appointment, func(ctx context.Context, p model.Property, q store.Query) ([]model.Appointment, error) {
					return r.Properties.Appointments(ctx, p.ID, q)
				}),
			})
		}),
	})

	o.appointment = graphql.NewObject(graphql.ObjectConfig{
		Name: "Appointment",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return withTimestamps(graphql.Fields{
				"date":  &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
				"notes": &graphql.Field{Type: graphql.String},
				"client": relationOne(o.client, func(ctx context.Context, a model.Appointment) (*model.Client, error) {
					return r.Appointments.Client(ctx, a)
				}),
				"property": relationOne(o.property, func(ctx context.Context, a model.Appointment) (*model.Property, error) {
					return r.Appointments.Property(ctx, a)
				}),
				"agent": relationOne(o.agent, func(ctx context.Context, a model.Appointment) (*model.Agent, error) {
					return r.Appointments.Agent(ctx, a)
				}),
			})
		}),
	})

	return o
}

func withTimestamps(fields graphql.Fields) graphql.Fields {
	fields["id"] = &graphql.Field{Type: graphql.NewNonNull(graphql.String)}
	fields["createdAt"] = &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)}
	fields["updatedAt"] = &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)}
	return fields
}

type entity[T any, C any, U any] struct {
	typeName string
	plural   string
	object   *graphql.Object
	meta     *graphql.Object
	res      crud.Resource[T, C, U]
	create   graphql.InputObjectConfigFieldMap
	update   graphql.InputObjectConfigFieldMap
}

// addEntity registers the list, get, meta, create, update and delete fields of e.
func addEntity[T any, C any, U any](r *Resolvers, query, mutation graphql.Fields, e entity[T, C, U]) {
	singular := strings.ToLower(e.typeName[:1]) + e.typeName[1:]
	where := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: e.typeName + "WhereUniqueInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id": {Type: graphql.NewNonNull(graphql.String)},
		},
	})
	createInput := graphql.NewInputObject(graphql.InputObjectConfig{Name: e.typeName + "CreateInput", Fields: e.create})
	updateInput := graphql.NewInputObject(graphql.InputObjectConfig{Name: e.typeName + "UpdateInput", Fields: e.update})
	whereArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(where)}

	query[e.plural] = &graphql.Field{
		Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(e.object))),
		Args: pageArgs(),
		Resolve: r.traced("Query."+e.plural, func(p graphql.ResolveParams) (interface{}, error) {
			return e.res.FindMany(p.Context, pageQuery(p.Args))
		}),
	}
	query["_"+e.plural+"Meta"] = &graphql.Field{
		Type: graphql.NewNonNull(e.meta),
		Args: pageArgs(),
		Resolve: r.traced("Query._"+e.plural+"Meta", func(p graphql.ResolveParams) (interface{}, error) {
			n, err := e.res.Count(p.Context, pageQuery(p.Args))
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"count": n}, nil
		}),
	}
	query[singular] = &graphql.Field{
		Type: e.object,
		Args: graphql.FieldConfigArgument{"where": whereArg},
		Resolve: r.traced("Query."+singular, func(p graphql.ResolveParams) (interface{}, error) {
			record, err := e.res.FindOne(p.Context, whereID(p.Args))
			if err != nil {
				if isNotFound(err) {
					return nil, nil
				}
				return nil, err
			}
			return record, nil
		}),
	}

	mutation["create"+e.typeName] = &graphql.Field{
		Type: graphql.NewNonNull(e.object),
		Args: graphql.FieldConfigArgument{
			"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createInput)},
		},
		Resolve: r.traced("Mutation.create"+e.typeName, func(p graphql.ResolveParams) (interface{}, error) {
			in, err := decode[C](p.Args["data"])
			if err != nil {
				return nil, err
			}
			return e.res.Create(p.Context, in)
		}),
	}
	mutation["update"+e.typeName] = &graphql.Field{
		Type: e.object,
		Args: graphql.FieldConfigArgument{
			"where": whereArg,
			"data":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateInput)},
		},
		Resolve: r.traced("Mutation.update"+e.typeName, func(p graphql.ResolveParams) (interface{}, error) {
			in, err := decode[U](p.Args["data"])
			if err != nil {
				return nil, err
			}
			return e.res.Update(p.Context, whereID(p.Args), in)
		}),
	}
	mutation["delete"+e.typeName] = &graphql.Field{
		Type: e.object,
		Args: graphql.FieldConfigArgument{"where": whereArg},
		Resolve: r.traced("Mutation.delete"+e.typeName, func(p graphql.ResolveParams) (interface{}, error) {
			return e.res.Delete(p.Context, whereID(p.Args))
		}),
	}
}

func (r *Resolvers) traced(name string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		ctx, span := telemetry.Span(p.Context, r.Tracer, "graphql."+name)
		p.Context = ctx
		out, err := fn(p)
		telemetry.End(span, err)
		if err != nil {
			return nil, classify(err)
		}
		return out, nil
	}
}

func relationList[S any, R any](target *graphql.Object, fetch func(context.Context, S, store.Query) ([]R, error)) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(target))),
		Args: pageArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			src, err := source[S](p)
			if err != nil {
				return nil, err
			}
			items, err := fetch(p.Context, src, pageQuery(p.Args))
			if err != nil {
				return nil, classify(err)
			}
			return items, nil
		},
	}
}

func relationOne[S any, R any](target *graphql.Object, fetch func(context.Context, S) (*R, error)) *graphql.Field {
	return &graphql.Field{
		Type: target,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			src, err := source[S](p)
			if err != nil {
				return nil, err
			}
			found, err := fetch(p.Context, src)
			if err != nil {
				return nil, classify(err)
			}
			if found == nil {
				return nil, nil
			}
			return *found, nil
		},
	}
}

func source[S any](p graphql.ResolveParams) (S, error) {
	switch v := p.Source.(type) {
	case S:
		return v, nil
	case *S:
		if v != nil {
			return *v, nil
		}
	}
	var zero S
	return zero, fmt.Errorf("unexpected source %T for field %s", p.Source, p.Info.FieldName)
}

func pageArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"take": &graphql.ArgumentConfig{Type: graphql.Int},
		"skip": &graphql.ArgumentConfig{Type: graphql.Int},
	}
}

func pageQuery(args map[string]interface{}) store.Query {
	var q store.Query
	if v, ok := args["take"].(int); ok {
		q.Take = v
	}
	if v, ok := args["skip"].(int); ok {
		q.Skip = v
	}
	return q
}

func whereID(args map[string]interface{}) string {
	where, _ := args["where"].(map[string]interface{})
	id, _ := where["id"].(string)
	return id
}

// decode converts a coerced input object into its Go payload.
func decode[T any](v interface{}) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, &crud.ValidationError{Err: err}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &crud.ValidationError{Err: err}
	}
	return out, nil
}
