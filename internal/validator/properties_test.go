package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesValid(t *testing.T) {
	v := newPropertiesValidator(deps{log: discardLogger(), layout: testLayout()}).(*propertiesValidator)
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE properties SYSTEM "http://java.sun.com/dtd/properties.dtd">
<properties>
  <comment>Package Properties</comment>
  <entry key="name">site</entry>
  <entry key="group">com.example</entry>
  <entry key="version">1.0.0</entry>
  <entry key="createdBy">builder</entry>
</properties>`

	res := metaResource(testLayout(), "vault/properties.xml")
	vs, err := v.ValidateMetadata(context.Background(), res, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, vs)
	assert.Equal(t, "com.example:site:1.0.0", v.packageID())
}

func TestPropertiesMissingRequiredKeys(t *testing.T) {
	v := newPropertiesValidator(deps{log: discardLogger(), layout: testLayout()}).(*propertiesValidator)
	doc := `<properties>
  <entry key="name">site</entry>
  <entry key="version"></entry>
</properties>`

	res := metaResource(testLayout(), "vault/properties.xml")
	vs, err := v.ValidateMetadata(context.Background(), res, strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, vs, 2)

	var messages []string
	for _, viol := range vs {
		assert.Equal(t, SeverityError, viol.Severity)
		messages = append(messages, viol.Message)
	}
	assert.Contains(t, strings.Join(messages, "\n"), "'group'")
	assert.Contains(t, strings.Join(messages, "\n"), "'version'")
	assert.Empty(t, v.packageID())
}

func TestPropertiesUnparseable(t *testing.T) {
	v := newPropertiesValidator(deps{log: discardLogger(), layout: testLayout()}).(*propertiesValidator)

	res := metaResource(testLayout(), "vault/properties.xml")
	vs, err := v.ValidateMetadata(context.Background(), res, strings.NewReader("<properties><entry"))
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "not parseable")
}

func TestPropertiesIgnoresOtherFiles(t *testing.T) {
	v := newPropertiesValidator(deps{log: discardLogger(), layout: testLayout()}).(*propertiesValidator)

	res := metaResource(testLayout(), "vault/config.xml")
	vs, err := v.ValidateMetadata(context.Background(), res, strings.NewReader("<x/>"))
	require.NoError(t, err)
	assert.Empty(t, vs)
	assert.False(t, v.seen)
}

func TestPropertiesCompleteMissing(t *testing.T) {
	v := newPropertiesValidator(deps{log: discardLogger(), layout: testLayout()}).(*propertiesValidator)

	vs, err := v.Complete(context.Background())
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "src/main/META-INF/vault/properties.xml", vs[0].Path)
	assert.Equal(t, SeverityError, vs[0].Severity)
}

func TestPropertiesCompleteContentOnly(t *testing.T) {
	contentOnly := testLayout()
	contentOnly.Roots = contentOnly.Roots[1:]
	v := newPropertiesValidator(deps{log: discardLogger(), layout: contentOnly}).(*propertiesValidator)

	vs, err := v.Complete(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestPropertiesCompleteAfterSeen(t *testing.T) {
	v := newPropertiesValidator(deps{log: discardLogger(), layout: testLayout()}).(*propertiesValidator)

	res := metaResource(testLayout(), "vault/properties.xml")
	_, err := v.ValidateMetadata(context.Background(), res, strings.NewReader("<properties/>"))
	require.NoError(t, err)

	vs, err := v.Complete(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vs)
}
