package convert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2ts/internal/resolve"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

func loadFixture(t *testing.T, name string) *spec.Document {
	t.Helper()
	doc, err := spec.Load(context.Background(), filepath.Join("testdata", name))
	require.NoError(t, err)
	return doc
}

func TestConvert_Petstore(t *testing.T) {
	t.Parallel()
	want, err := os.ReadFile(filepath.Join("testdata", "petstore.ts"))
	require.NoError(t, err)

	res, err := Convert(context.Background(), loadFixture(t, "petstore.yaml"))
	require.NoError(t, err)
	assert.Equal(t, string(want), res.Text)
	assert.Equal(t, 10, res.Declarations)
	assert.Equal(t, 5, res.Functions)
}

func TestConvert_Deterministic(t *testing.T) {
	t.Parallel()
	doc := loadFixture(t, "petstore.yaml")

	// Independent conversions of one document, including concurrent ones,
	// produce identical text.
	var wg sync.WaitGroup
	outputs := make([]string, 4)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := Convert(context.Background(), doc)
			if err == nil {
				outputs[i] = res.Text
			}
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(outputs); i++ {
		assert.Equal(t, outputs[0], outputs[i])
	}
	assert.NotEmpty(t, outputs[0])
}

func TestConvert_PathTemplateArguments(t *testing.T) {
	t.Parallel()
	doc, err := spec.Parse([]byte(`openapi: 3.0.0
info: {title: t, version: "1"}
paths:
  /users/{userId}/posts:
    get:
      responses:
        "200": { description: ok }
`), "inline.yaml")
	require.NoError(t, err)
	res, err := Convert(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t,
		"export const UsersUserIdPostsGetRequest = (userId: string, options?: any) => request<any>(`/users/${userId}/posts`, { method: 'GET', ...options })\n",
		res.Text)
}

func TestConvert_PathArgumentsAvoidReservedNames(t *testing.T) {
	t.Parallel()
	doc, err := spec.Parse([]byte(`openapi: 3.0.0
info: {title: t, version: "1"}
paths:
  /schools/{class}/{body}:
    get:
      operationId: getClass
      responses:
        "200": { description: ok }
`), "inline.yaml")
	require.NoError(t, err)
	res, err := Convert(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t,
		"export const getClass = (classParam: string, bodyParam: string, options?: any) => request<any>(`/schools/${classParam}/${bodyParam}`, { method: 'GET', ...options })\n",
		res.Text)
}

func TestConvert_Options(t *testing.T) {
	t.Parallel()
	doc := loadFixture(t, "petstore.yaml")
	res, err := Convert(context.Background(), doc,
		WithFilter(spec.WithExcludeTags([]string{"write", "media"})),
		WithRequestHelper("api"),
		WithImportFrom("./api"),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Functions)
	assert.True(t, strings.HasPrefix(res.Text, "import { api } from './api'\n\n"))
	assert.Contains(t, res.Text, "export const getPet = (petId: number, options?: any) => api<Pet>(")
	assert.NotContains(t, res.Text, "createPet")
	assert.NotContains(t, res.Text, "NewPet")
}

func TestConvert_CollisionPolicy(t *testing.T) {
	t.Parallel()
	doc, err := spec.Parse([]byte(`openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Pet:
      type: object
      properties:
        owner: { type: object }
    PetOwner: { type: string }
`), "collide.yaml")
	require.NoError(t, err)

	res, err := Convert(context.Background(), doc)
	assert.Nil(t, res, "no partial output on failure")
	assert.True(t, errors.Is(err, spec.ErrCollision))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	res, err = Convert(context.Background(), doc, WithCollisionPolicy(resolve.CollisionOverwrite), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "export type PetOwner = string")
	assert.Contains(t, logs.String(), "schema name collision")
	assert.Contains(t, logs.String(), "converted document")
}

func TestConvert_FlattensNestedQueryObjects(t *testing.T) {
	t.Parallel()
	res, err := Convert(context.Background(), loadFixture(t, "petstore.yaml"))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "export interface PetsGetParams {\n\tlimit?: number,\n\tspecies?: Species,\n\tminAge?: number,\n}")
	assert.NotContains(t, res.Text, "filter")
}

func TestConvert_Swagger2(t *testing.T) {
	t.Parallel()
	res, err := Convert(context.Background(), loadFixture(t, "swagger2.yaml"))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "export interface Todo {\n\tid: number,\n\ttitle: string,\n\tdone?: boolean | null,\n}")
	assert.Contains(t, res.Text, "export const listTodos = (options?: any) => request<Todo[]>('/todos', { method: 'GET', ...options })")
	assert.Contains(t, res.Text, "export const addTodo = (body: Todo, options?: any) => request<Todo>('/todos', { method: 'POST', body, ...options })")
}
